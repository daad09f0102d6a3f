package portal

import "strings"

// the portal answers most requests with a 200 and a short html page, the only
// way to tell outcomes apart is the text it contains.
const (
	marker_auto_logout    = "系統已自動登出"
	marker_login_required = "請於首頁右上角之【設定】登入後使用"

	marker_login_success = "成功"
	marker_login_error   = "錯誤"

	marker_signup_full     = "名額已滿"
	marker_signup_failed   = "活動報名失敗"
	marker_signup_repeated = "您已經報名本活動了"

	marker_cancel_success = "已取消本筆活動報名資料"
)

// marker maps a piece of response text to the error it stands for, a nil err
// is a positive outcome.
type marker struct {
	text string
	err  error
}

// markerTable is checked in order, the first marker found in the body wins.
type markerTable []marker

func (t markerTable) classify(body string) (marker, bool) {
	for _, m := range t {
		if strings.Contains(body, m.text) {
			return m, true
		}
	}
	return marker{}, false
}

var sessionExpiredMarkers = markerTable{
	{text: marker_auto_logout, err: errSessionExpired},
	{text: marker_login_required, err: errSessionExpired},
}

var loginMarkers = markerTable{
	{text: marker_login_success, err: nil},
	{text: marker_login_error, err: errLoginRejected},
}

var signupMarkers = append(markerTable{
	{text: marker_signup_full, err: ErrCapacityExceeded},
	{text: marker_signup_failed, err: ErrSignupRejected},
	{text: marker_signup_repeated, err: ErrAlreadySignedUp},
}, sessionExpiredMarkers...)

var cancelMarkers = append(
	append(markerTable{}, sessionExpiredMarkers...),
	marker{text: marker_cancel_success, err: nil},
)

// checkSession returns errSessionExpired when the body is the portal's
// logged out notice.
func checkSession(body string) error {
	m, ok := sessionExpiredMarkers.classify(body)
	if ok {
		return m.err
	}
	return nil
}
