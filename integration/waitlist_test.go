package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/akeren/clawsec-waitlist/config"
	"github.com/akeren/clawsec-waitlist/config/router"
	"github.com/akeren/clawsec-waitlist/domain"
	"github.com/akeren/clawsec-waitlist/domain/waitlist"
	"github.com/akeren/clawsec-waitlist/internal/jobs"
	"github.com/akeren/clawsec-waitlist/internal/log"
	"github.com/akeren/clawsec-waitlist/internal/models"
	"github.com/akeren/clawsec-waitlist/pkg/localcache"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type WaitlistAPITestSuite struct {
	suite.Suite
	db        *gorm.DB
	server    *httptest.Server
	baseURL   string
	appConfig *config.ApplicationConfig
}

func (suite *WaitlistAPITestSuite) SetupSuite() {
	var err error
	suite.db, err = gorm.Open(sqlite.Open("file:integration?mode=memory&cache=shared"), &gorm.Config{Logger: gormlogger.Discard})
	suite.Require().NoError(err)

	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	suite.Require().NoError(suite.db.AutoMigrate(models.ModelRegistry...))

	logger := log.NewLogger(io.Discard, "error")
	cache := localcache.New(1)

	suite.appConfig = &config.ApplicationConfig{
		DB:          suite.db,
		Persistence: &config.Persistence{Backend: config.BackendDatabase, DB: suite.db},
		Logger:      logger,
		Cache:       cache,
		Scheduler:   jobs.NewScheduler(logger, 5*time.Second),
		Config: &config.AppConfig{
			Waitlist: config.WaitlistConfig{
				CountCacheTTL:        time.Minute,
				CountRefreshInterval: time.Hour,
				SignupRateLimit:      1000,
			},
		},
	}

	suite.appConfig.RouterService = router.CreateRouterService(logger, cache, &router.RouterConfig{
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    30 * time.Second,
	})

	suite.Require().NoError(domain.SetupCoreDomain(suite.appConfig))

	suite.server = httptest.NewServer(suite.appConfig.RouterService.Handler())
	suite.baseURL = suite.server.URL
}

func (suite *WaitlistAPITestSuite) TearDownSuite() {
	if suite.server != nil {
		suite.server.Close()
	}
	suite.appConfig.Cleanup()
}

func (suite *WaitlistAPITestSuite) SetupTest() {
	suite.db.Exec("DELETE FROM waitlist")
	_ = suite.appConfig.Cache.Delete(suite.T().Context(), "waitlist:count")
}

func (suite *WaitlistAPITestSuite) post(path, body string) (int, map[string]any) {
	resp, err := http.Post(suite.baseURL+path, "application/json", bytes.NewBufferString(body))
	suite.Require().NoError(err)
	defer resp.Body.Close()
	return resp.StatusCode, suite.decode(resp.Body)
}

func (suite *WaitlistAPITestSuite) get(path string) (int, map[string]any) {
	resp, err := http.Get(suite.baseURL + path)
	suite.Require().NoError(err)
	defer resp.Body.Close()
	return resp.StatusCode, suite.decode(resp.Body)
}

func (suite *WaitlistAPITestSuite) decode(r io.Reader) map[string]any {
	var payload map[string]any
	suite.Require().NoError(json.NewDecoder(r).Decode(&payload))
	return payload
}

func (suite *WaitlistAPITestSuite) TestHealthCheck() {
	status, body := suite.get("/health")

	suite.Equal(http.StatusOK, status)
	data := body["data"].(map[string]any)
	suite.Equal(1.0, data["persistence"])
	suite.Equal(1.0, data["cache"])
	suite.Equal("database", data["backend"])
}

func (suite *WaitlistAPITestSuite) TestSignupLifecycle() {
	status, body := suite.get("/waitlist")
	suite.Equal(http.StatusOK, status)
	suite.Equal(127.0, body["count"])

	status, body = suite.post("/waitlist", `{"email":"  First@Example.COM "}`)
	suite.Equal(http.StatusOK, status)
	suite.Equal(true, body["success"])
	suite.Equal(128.0, body["count"])

	status, body = suite.post("/v1/waitlist", `{"email":"first@example.com"}`)
	suite.Equal(http.StatusConflict, status)
	suite.Equal("This email is already on the waitlist", body["error"])

	status, body = suite.get("/v1/waitlist")
	suite.Equal(http.StatusOK, status)
	suite.Equal(128.0, body["count"])

	var stored []models.WaitlistEntry
	suite.Require().NoError(suite.db.Find(&stored).Error)
	suite.Require().Len(stored, 1)
	suite.Equal("first@example.com", stored[0].Email)
}

func (suite *WaitlistAPITestSuite) TestConcurrentSignupsForOneEmail() {
	const attempts = 8

	var wg sync.WaitGroup
	statuses := make(chan int, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Post(suite.baseURL+"/waitlist", "application/json", strings.NewReader(`{"email":"race@example.com"}`))
			if err != nil {
				statuses <- 0
				return
			}
			resp.Body.Close()
			statuses <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(statuses)

	counts := map[int]int{}
	for status := range statuses {
		counts[status]++
	}
	suite.Equal(1, counts[http.StatusOK])
	suite.Equal(attempts-1, counts[http.StatusConflict])

	var rows int64
	suite.Require().NoError(suite.db.Model(&models.WaitlistEntry{}).Count(&rows).Error)
	suite.Equal(int64(1), rows)
}

func (suite *WaitlistAPITestSuite) TestCountRefreshJob() {
	for i := 0; i < 3; i++ {
		suite.Require().NoError(suite.db.Create(&models.WaitlistEntry{Email: fmt.Sprintf("seed%d@example.com", i)}).Error)
	}

	suite.Contains(suite.appConfig.Scheduler.Tasks(), waitlist.CountRefreshTask)
	suite.Require().NoError(suite.appConfig.Scheduler.Trigger(waitlist.CountRefreshTask))

	value, err := suite.appConfig.Cache.Get(suite.T().Context(), "waitlist:count")
	suite.Require().NoError(err)
	suite.Equal("3", value)

	_, body := suite.get("/waitlist")
	suite.Equal(130.0, body["count"])
}

func (suite *WaitlistAPITestSuite) TestShowcaseEndpoints() {
	status, body := suite.get("/v1/showcase/particles?count=5")
	suite.Equal(http.StatusOK, status)
	suite.Len(body["data"].(map[string]any)["particles"], 5)

	status, _ = suite.get("/v1/showcase/terminal/without")
	suite.Equal(http.StatusOK, status)
}

func (suite *WaitlistAPITestSuite) TestMetricsExposeSignupOutcomes() {
	suite.post("/waitlist", `{"email":"bad"}`)

	resp, err := http.Get(suite.baseURL + "/metrics")
	suite.Require().NoError(err)
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	suite.Require().NoError(err)
	suite.Contains(string(text), `waitlist_signups_total{outcome="invalid_format"}`)
}

func TestWaitlistAPISuite(t *testing.T) {
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration tests. Set RUN_INTEGRATION_TESTS=true to run them")
	}

	suite.Run(t, new(WaitlistAPITestSuite))
}
