package portal

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

type fakeEvent struct {
	id       int
	name     string
	category Category
	capacity int
	signups  int
}

// fakePortal serves just enough of the portal to exercise the client: logins
// issue PHPSESSID cookies, authenticated pages answer with the logged out
// notice unless the cookie is a live session.
type fakePortal struct {
	t      testing.TB
	server *httptest.Server

	mutex    sync.Mutex
	userId   string
	password string
	// sessions maps session ids to whether they are still alive
	sessions    map[string]bool
	nextSession int
	events      []fakeEvent
	// signups maps event ids to sign sequences
	signups     map[int]int
	nextSignSeq int
	logins      int
	requests    map[string]int

	// loginBody overrides the response to correct credentials
	loginBody string
	// deadSessions makes every session issued from now on expired already
	deadSessions bool
	// failLogins answers every login with a server error
	failLogins bool
}

func newFakePortal(t testing.TB, userId, password string) *fakePortal {
	p := &fakePortal{
		t:           t,
		userId:      userId,
		password:    password,
		sessions:    map[string]bool{},
		signups:     map[int]int{},
		nextSignSeq: 5000,
		requests:    map[string]int{},
		events: []fakeEvent{
			{id: 101, name: "通識講座：人工智慧倫理", category: CategoryGeneralEducation, capacity: 100, signups: 12},
			{id: 102, name: "通識講座：氣候變遷", category: CategoryGeneralEducation, capacity: 50, signups: 50},
			{id: 201, name: "心靈講座：壓力調適", category: CategorySpiritual, capacity: 60, signups: 3},
			{id: 401, name: "語文講座：日語入門", category: CategoryLanguage, capacity: 40, signups: 39},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/app/sess_student.php", p.handleLogin)
	mux.HandleFunc("/app/score.php", p.authenticated(marker_auto_logout, p.fixture("results.html")))
	mux.HandleFunc("/app/curriculum.php", p.authenticated(marker_auto_logout, p.fixture("curriculum.html")))
	mux.HandleFunc("/app/hour.php", p.authenticated(marker_login_required, p.fixture("hours.html")))
	mux.HandleFunc("/app/finish.php", p.authenticated(marker_login_required, p.handleFinish))
	mux.HandleFunc("/app/sign_app_ok.php", p.authenticated(marker_auto_logout, p.handleSignup))
	mux.HandleFunc("/app/del_signup.php", p.authenticated(marker_login_required, p.handleCancel))
	mux.HandleFunc("/app/signup.php", p.handleEvents)
	mux.HandleFunc("/app/show_content.php", p.fixture("event.html"))
	mux.HandleFunc("/app/show_member.php", p.handleMembers)
	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)

	return p
}

func (p *fakePortal) baseUrl() string {
	return p.server.URL + "/app"
}

func (p *fakePortal) write(w http.ResponseWriter, body string) {
	w.Header().Set("content-type", "text/html; charset=utf-8")
	_, err := w.Write([]byte(body))
	if err != nil {
		p.t.Error(err)
	}
}

func (p *fakePortal) count(r *http.Request) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.requests[r.URL.Path]++
}

func (p *fakePortal) requestCount(path string) int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.requests["/app"+path]
}

func (p *fakePortal) loginCount() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.logins
}

// expireSessions ends every session the portal issued so far.
func (p *fakePortal) expireSessions() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	for id := range p.sessions {
		p.sessions[id] = false
	}
}

func (p *fakePortal) setDeadSessions(value bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.deadSessions = value
}

func (p *fakePortal) setLoginBody(body string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.loginBody = body
}

func (p *fakePortal) setFailLogins(value bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.failLogins = value
}

func (p *fakePortal) setPassword(password string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.password = password
}

func (p *fakePortal) handleLogin(w http.ResponseWriter, r *http.Request) {
	p.count(r)
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	err := r.ParseMultipartForm(1 << 20)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	p.mutex.Lock()
	p.logins++
	if p.failLogins {
		p.mutex.Unlock()
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	ok := r.FormValue("p_usr") == p.userId && r.FormValue("p_pwd") == p.password
	var sessionId string
	if ok {
		p.nextSession++
		sessionId = fmt.Sprintf("sess%d", p.nextSession)
		p.sessions[sessionId] = !p.deadSessions
	}
	loginBody := p.loginBody
	p.mutex.Unlock()

	if !ok {
		p.write(w, "<script>alert('帳號或密碼錯誤');history.back();</script>")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookieName, Value: sessionId, Path: "/"})
	if loginBody != "" {
		p.write(w, loginBody)
		return
	}
	p.write(w, "<script>alert('登入成功');location.href='index.php';</script>")
}

func (p *fakePortal) loggedIn(r *http.Request) bool {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return false
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.sessions[cookie.Value]
}

func (p *fakePortal) authenticated(loggedOutMarker string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !p.loggedIn(r) {
			p.count(r)
			p.write(w, fmt.Sprintf("<html><body><p>%s</p></body></html>", loggedOutMarker))
			return
		}
		next(w, r)
	}
}

func (p *fakePortal) fixture(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p.count(r)
		contents, err := fixtures.ReadFile("testdata/" + name)
		if err != nil {
			p.t.Error(err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		p.write(w, string(contents))
	}
}

func (p *fakePortal) handleEvents(w http.ResponseWriter, r *http.Request) {
	p.count(r)
	selpp := r.URL.Query().Get("selpp")

	var rows strings.Builder
	p.mutex.Lock()
	for _, e := range p.events {
		expected, _ := e.category.selpp()
		if selpp != "0" && selpp != strconv.Itoa(expected) {
			continue
		}
		status := fmt.Sprintf(`<a href="signup_form.php?crs_seq=%d">報名中</a>`, e.id)
		if e.signups >= e.capacity {
			status = "額滿"
		}
		fmt.Fprintf(
			&rows,
			`<tr><td><a href="show_content.php?crs_seq=%d">%s</a></td><td>112/11/%02d</td><td>%d</td><td><a href="show_member.php?crs_seq=%d">%d</a></td><td>演講廳</td><td>%s</td></tr>`,
			e.id, e.name, e.id%28+1, e.capacity, e.id, e.signups, status,
		)
	}
	p.mutex.Unlock()

	p.write(w, fmt.Sprintf(`<html><body><table id="signup-table"><tbody>%s</tbody></table></body></html>`, rows.String()))
}

func (p *fakePortal) findEvent(id int) (int, bool) {
	for i, e := range p.events {
		if e.id == id {
			return i, true
		}
	}
	return 0, false
}

func (p *fakePortal) handleSignup(w http.ResponseWriter, r *http.Request) {
	p.count(r)
	err := r.ParseMultipartForm(1 << 20)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	eventId, err := strconv.Atoi(r.FormValue("crs_seq"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if r.FormValue("email") != strings.ToLower(p.userId)+"@"+institutional_domain {
		p.write(w, "<script>alert('活動報名失敗');</script>")
		return
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	idx, ok := p.findEvent(eventId)
	switch {
	case !ok:
		p.write(w, "<script>alert('活動報名失敗');</script>")
	case p.signups[eventId] != 0:
		p.write(w, "<script>alert('您已經報名本活動了');</script>")
	case p.events[idx].signups >= p.events[idx].capacity:
		p.write(w, "<script>alert('名額已滿');</script>")
	default:
		p.nextSignSeq++
		p.signups[eventId] = p.nextSignSeq
		p.events[idx].signups++
		p.write(w, "<script>alert('報名成功');</script>")
	}
}

func (p *fakePortal) handleFinish(w http.ResponseWriter, r *http.Request) {
	p.count(r)

	var rows strings.Builder
	p.mutex.Lock()
	for _, e := range p.events {
		if p.signups[e.id] == 0 {
			continue
		}
		fmt.Fprintf(
			&rows,
			`<tr><td><a href="show_content.php?crs_seq=%d">%s</a></td><td>112/11/%02d</td><td>%d</td><td><a href="show_member.php?crs_seq=%d">%d</a></td></tr>`,
			e.id, e.name, e.id%28+1, e.capacity, e.id, e.signups,
		)
	}
	total := len(p.signups)
	p.mutex.Unlock()

	p.write(w, fmt.Sprintf(
		`<html><body><table id="signup-table"><tbody>%s<tr><td colspan="4">共 %d 筆</td></tr></tbody></table></body></html>`,
		rows.String(), total,
	))
}

func (p *fakePortal) handleMembers(w http.ResponseWriter, r *http.Request) {
	p.count(r)
	eventId, err := strconv.Atoi(r.URL.Query().Get("crs_seq"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	cancel := ""
	if p.loggedIn(r) {
		p.mutex.Lock()
		signSeq := p.signups[eventId]
		p.mutex.Unlock()
		if signSeq != 0 {
			cancel = fmt.Sprintf(`<a href="javascript:Del_check('%d')">取消報名</a>`, signSeq)
		}
	}

	contents, err := fixtures.ReadFile("testdata/members.html")
	if err != nil {
		p.t.Error(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	p.write(w, strings.Replace(string(contents), "</body>", cancel+"</body>", 1))
}

func (p *fakePortal) handleCancel(w http.ResponseWriter, r *http.Request) {
	p.count(r)
	signSeq, err := strconv.Atoi(r.URL.Query().Get("sign_seq"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()
	for eventId, seq := range p.signups {
		if seq != signSeq {
			continue
		}
		delete(p.signups, eventId)
		if idx, ok := p.findEvent(eventId); ok {
			p.events[idx].signups--
		}
		p.write(w, "<script>alert('已取消本筆活動報名資料');</script>")
		return
	}
	p.write(w, "<script>alert('查無報名資料');</script>")
}
