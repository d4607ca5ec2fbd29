package echoapi_test

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	echoapi "github.com/trezcool/onestop/apps/api/echo"
	"github.com/trezcool/onestop/core"
	"github.com/trezcool/onestop/core/academics"
	"github.com/trezcool/onestop/core/auth"
	"github.com/trezcool/onestop/core/user"
	logsvc "github.com/trezcool/onestop/services/logger"
	"github.com/trezcool/onestop/storage/database/inmem"
	"github.com/trezcool/onestop/tests"
)

// testApp is a server wired on the in-memory store.
type testApp struct {
	conf         *core.Config
	server       *echoapi.Server
	usrRepo      user.Repository
	academicRepo academics.Repository
	codec        *auth.TokenCodec
}

func newTestApp(t *testing.T, configure ...func(*core.Config)) *testApp {
	t.Helper()
	return newTestAppWithRepo(t, nil, configure...)
}

// newTestAppWithRepo lets wrap replace the academics repository the server sees.
func newTestAppWithRepo(t *testing.T, wrap func(academics.Repository) academics.Repository, configure ...func(*core.Config)) *testApp {
	t.Helper()

	conf := testutil.NewConfig()
	for _, fn := range configure {
		fn(conf)
	}

	db := inmemdb.NewDB()
	usrRepo := inmemdb.NewUserRepository(db)
	academicRepo := inmemdb.NewAcademicsRepository(db)
	if wrap != nil {
		academicRepo = wrap(academicRepo)
	}
	validate, translator := testutil.NewValidator()

	codec := auth.NewTokenCodecFromConfig(conf)
	carrier := auth.NewSessionCarrierFromConfig(conf)
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	logger.Enable(false)

	server, err := echoapi.NewServer(conf, logger, &echoapi.Deps{
		Gate:           auth.NewGate(carrier, codec, usrRepo, conf),
		Codec:          codec,
		Carrier:        carrier,
		UserSvc:        user.NewService(usrRepo, auth.NewPasswordHasher(bcrypt.MinCost), validate, translator),
		AcademicsSvc:   academics.NewService(academicRepo, usrRepo, validate, translator),
		DisableReqLogs: true,
	})
	require.NoError(t, err, "NewServer()")

	return &testApp{
		conf:         conf,
		server:       server,
		usrRepo:      usrRepo,
		academicRepo: academicRepo,
		codec:        codec,
	}
}

func (app *testApp) createUser(t *testing.T, name, email string, role user.Role) user.User {
	return testutil.CreateUser(t, app.usrRepo, name, email, "pw123", role)
}

func (app *testApp) getToken(t *testing.T, usr user.User) string {
	token, err := app.codec.Issue(auth.NewClaims(usr.Identity()), 0)
	require.NoError(t, err, "getToken()")
	return token
}

type httpTest struct {
	name   string
	method string
	path   string
	form   url.Values
	token  string // sent in the `token` cookie
	bearer string // sent in the Authorization header
	xhr    bool

	wantCode     int
	wantLocation string
	wantJSON     string   // exact JSON body
	wantBody     []string // substrings of an HTML body
}

func newRequest(tt httpTest) (*http.Request, *httptest.ResponseRecorder) {
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if tt.form != nil {
		body = strings.NewReader(tt.form.Encode())
	}
	req := httptest.NewRequest(method, tt.path, body)
	if tt.form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if tt.token != "" {
		req.AddCookie(&http.Cookie{Name: "token", Value: tt.token})
	}
	if tt.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+tt.bearer)
	}
	if tt.xhr {
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
	}
	return req, httptest.NewRecorder()
}

func (app *testApp) do(tt httpTest) *httptest.ResponseRecorder {
	req, rec := newRequest(tt)
	app.server.ServeHTTP(rec, req)
	return rec
}

func (app *testApp) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(tt)
			checkResponse(t, tt, rec)
		})
	}
}

func checkResponse(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()

	wantCode := tt.wantCode
	if wantCode == 0 {
		wantCode = http.StatusOK
	}
	assert.Equal(t, wantCode, rec.Code, "status code")
	if tt.wantLocation != "" {
		assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"), "redirect location")
	}
	if tt.wantJSON != "" {
		assert.JSONEq(t, tt.wantJSON, rec.Body.String())
	}
	for _, s := range tt.wantBody {
		assert.Contains(t, rec.Body.String(), s)
	}
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func mustGetUser(t *testing.T, repo user.Repository, id int64) user.User {
	usr, err := repo.GetUserByID(context.Background(), id)
	require.NoError(t, err)
	return usr
}
