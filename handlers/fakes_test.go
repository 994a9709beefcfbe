package handlers

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"tahuri-backend/logger"
	"tahuri-backend/models"
	"tahuri-backend/utils"
)

const testSecret = "handler-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
	if err := utils.RegisterBindings(); err != nil {
		panic(err)
	}
}

// stubs return whatever their func fields return; nil funcs panic so an
// unexpected call fails the test loudly.

type stubEvents struct {
	create     func(models.EventRequest) (models.Event, error)
	update     func(uuid.UUID, models.EventRequest) (models.Event, error)
	get        func(uuid.UUID) (models.EventDetail, error)
	find       func(string) (models.EventDetail, error)
	list       func(models.EventFilter) (models.EventPage, error)
	listPublic func() ([]models.EventDetail, error)
	del        func(uuid.UUID) error
}

func (s *stubEvents) Create(_ context.Context, req models.EventRequest) (models.Event, error) {
	return s.create(req)
}

func (s *stubEvents) Update(_ context.Context, id uuid.UUID, req models.EventRequest) (models.Event, error) {
	return s.update(id, req)
}

func (s *stubEvents) Get(_ context.Context, id uuid.UUID) (models.EventDetail, error) {
	return s.get(id)
}

func (s *stubEvents) Find(_ context.Context, ref string) (models.EventDetail, error) {
	return s.find(ref)
}

func (s *stubEvents) List(_ context.Context, f models.EventFilter) (models.EventPage, error) {
	return s.list(f)
}

func (s *stubEvents) ListPublic(context.Context) ([]models.EventDetail, error) {
	return s.listPublic()
}

func (s *stubEvents) Delete(_ context.Context, id uuid.UUID) error {
	return s.del(id)
}

type stubRegistrations struct {
	register func(string, models.RegisterRequest) (models.RegistrationDetail, error)
	get      func(uuid.UUID) (models.RegistrationDetail, error)
	byTicket func(string) (models.RegistrationDetail, error)
	list     func(models.RegistrationQuery) (models.RegistrationPage, error)
	update   func(uuid.UUID, models.UpdateRegistrationRequest) (models.Registration, error)
	cancel   func(uuid.UUID) (models.Registration, error)
	del      func(uuid.UUID) error
}

func (s *stubRegistrations) Register(_ context.Context, ref string, req models.RegisterRequest) (models.RegistrationDetail, error) {
	return s.register(ref, req)
}

func (s *stubRegistrations) Get(_ context.Context, id uuid.UUID) (models.RegistrationDetail, error) {
	return s.get(id)
}

func (s *stubRegistrations) ByTicket(_ context.Context, ticket string) (models.RegistrationDetail, error) {
	return s.byTicket(ticket)
}

func (s *stubRegistrations) List(_ context.Context, q models.RegistrationQuery) (models.RegistrationPage, error) {
	return s.list(q)
}

func (s *stubRegistrations) Update(_ context.Context, id uuid.UUID, req models.UpdateRegistrationRequest) (models.Registration, error) {
	return s.update(id, req)
}

func (s *stubRegistrations) Cancel(_ context.Context, id uuid.UUID) (models.Registration, error) {
	return s.cancel(id)
}

func (s *stubRegistrations) Delete(_ context.Context, id uuid.UUID) error {
	return s.del(id)
}

type stubTickets struct {
	err error
}

func (s stubTickets) Filename(reg models.RegistrationDetail) string {
	return "tiket-" + strings.ToLower(reg.TicketNumber) + ".pdf"
}

func (s stubTickets) Render(w io.Writer, _ models.RegistrationDetail) error {
	if s.err != nil {
		return s.err
	}
	_, err := io.WriteString(w, "%PDF-1.3 stub")
	return err
}

type stubCheckins struct {
	search   func(models.CheckInSearchQuery) ([]models.CheckInSearchResult, error)
	checkIn  func(uuid.UUID, uuid.UUID) (models.CheckInResult, error)
	undo     func(uuid.UUID, uuid.UUID) (models.Registration, error)
	forEvent func(uuid.UUID) ([]models.EventCheckIn, error)
}

func (s *stubCheckins) Search(_ context.Context, q models.CheckInSearchQuery) ([]models.CheckInSearchResult, error) {
	return s.search(q)
}

func (s *stubCheckins) CheckIn(_ context.Context, regID, adminID uuid.UUID) (models.CheckInResult, error) {
	return s.checkIn(regID, adminID)
}

func (s *stubCheckins) Undo(_ context.Context, regID, adminID uuid.UUID) (models.Registration, error) {
	return s.undo(regID, adminID)
}

func (s *stubCheckins) EventCheckIns(_ context.Context, eventID uuid.UUID) ([]models.EventCheckIn, error) {
	return s.forEvent(eventID)
}

type stubAuth struct {
	login func(string, string) (models.LoginResponse, error)
	admin func(uuid.UUID) (models.Admin, error)
}

func (s *stubAuth) Login(_ context.Context, email, password string) (models.LoginResponse, error) {
	return s.login(email, password)
}

func (s *stubAuth) Admin(_ context.Context, id uuid.UUID) (models.Admin, error) {
	return s.admin(id)
}

type stubReports struct {
	summary func() (models.DashboardSummary, error)
	events  func() ([]models.EventReport, error)
	trend   func(int) ([]models.DailyCount, error)
	line    func(uuid.UUID) ([]models.HourlyCount, error)
	export  func(uuid.UUID) (string, []byte, error)
}

func (s *stubReports) Summary(context.Context) (models.DashboardSummary, error) {
	return s.summary()
}

func (s *stubReports) EventReports(context.Context) ([]models.EventReport, error) {
	return s.events()
}

func (s *stubReports) Trend(_ context.Context, days int) ([]models.DailyCount, error) {
	return s.trend(days)
}

func (s *stubReports) Timeline(_ context.Context, id uuid.UUID) ([]models.HourlyCount, error) {
	return s.line(id)
}

func (s *stubReports) ExportCSV(_ context.Context, id uuid.UUID) (string, []byte, error) {
	return s.export(id)
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }

var errBoom = errors.New("boom")

type testServer struct {
	engine        *gin.Engine
	events        *stubEvents
	registrations *stubRegistrations
	tickets       *stubTickets
	checkins      *stubCheckins
	auth          *stubAuth
	reports       *stubReports
	db            *stubPinger
	adminID       uuid.UUID
	token         string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	s := &testServer{
		events:        &stubEvents{},
		registrations: &stubRegistrations{},
		tickets:       &stubTickets{},
		checkins:      &stubCheckins{},
		auth:          &stubAuth{},
		reports:       &stubReports{},
		db:            &stubPinger{},
		adminID:       uuid.New(),
	}

	token, _, err := utils.GenerateToken(s.adminID.String(), "admin@tahuri.id", testSecret, time.Hour)
	require.NoError(t, err)
	s.token = token

	log := logger.Discard()
	s.engine = Router{
		Log:           log,
		JWTSecret:     testSecret,
		CORSOrigins:   []string{"http://localhost:3000"},
		Events:        NewEventHandler(log, s.events),
		Registrations: NewRegistrationHandler(log, s.registrations, s.tickets),
		Checkins:      NewCheckinHandler(log, s.checkins),
		Admins:        NewAdminHandler(log, s.auth),
		Reports:       NewReportHandler(log, s.reports),
		Health:        NewHealthHandler(log, s.db, "development"),
	}.Engine()
	return s
}

// do sends an unauthenticated request.
func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

// admin sends a request carrying a valid admin token.
func (s *testServer) admin(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Authorization", "Bearer "+s.token)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}
