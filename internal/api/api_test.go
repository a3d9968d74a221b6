package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kiloapp/kilo-v2/backend/config"
	"github.com/kiloapp/kilo-v2/backend/internal/api"
	"github.com/kiloapp/kilo-v2/backend/internal/quota"
	"github.com/kiloapp/kilo-v2/backend/internal/router"
	"github.com/kiloapp/kilo-v2/backend/internal/service"
	"github.com/kiloapp/kilo-v2/backend/internal/testhelpers"
)

type testAPI struct {
	engine   *gin.Engine
	db       *gorm.DB
	llmCalls *int32
}

// setupAPI wires the full router against an in-memory database, a miniredis
// instance and a fake LLM server that always answers with llmContent.
func setupAPI(t *testing.T, llmContent string) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var calls int32
	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": llmContent}},
			},
		})
	}))
	t.Cleanup(llm.Close)

	db := testhelpers.SetupTestDatabase(t)
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	chat := service.NewChatClient(&config.Config{
		LLMAPIKey: "test-key",
		LLMAPIURL: llm.URL,
		LLMModel:  "test-model",
	})

	authService := service.NewAuthService(db, "test-secret")
	settingsService := service.NewSettingsService(db)
	// Caching is disabled here so every generation hits the fake LLM and the
	// call counter stays meaningful.
	recipeService := service.NewRecipeService(chat, nil)
	savedService := service.NewSavedRecipeService(db, recipeService, settingsService)
	planStore := service.NewPlanStore(redisClient)
	tracker := quota.NewTracker(db)

	engine := router.SetupRouter(router.Deps{
		Auth:      api.NewAuthHandler(authService),
		Recipes:   api.NewRecipeHandler(recipeService, settingsService),
		Photos:    api.NewPhotoHandler(recipeService, settingsService, nil),
		Plans:     api.NewPlanHandler(recipeService, settingsService, planStore),
		Settings:  api.NewSettingsHandler(settingsService, tracker),
		Saved:     api.NewSavedRecipeHandler(savedService),
		Validator: authService,
		Tracker:   tracker,
	})

	return &testAPI{engine: engine, db: db, llmCalls: &calls}
}

func (a *testAPI) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func (a *testAPI) registerUser(t *testing.T, email string) string {
	t.Helper()
	w := a.request(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name":     "Test User",
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

const recipeListJSON = `{"recipes": [{"name": "Omelete", "steps": ["bata os ovos"], "ingredients": ["3 ovos"], "servings": 1}]}`

func TestAuthFlow(t *testing.T) {
	app := setupAPI(t, recipeListJSON)

	token := app.registerUser(t, "ana@example.com")
	assert.NotEmpty(t, token)

	t.Run("login returns a token", func(t *testing.T) {
		w := app.request(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
			"email":    "ana@example.com",
			"password": "password123",
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		w := app.request(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
			"email":    "ana@example.com",
			"password": "wrong-password",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("duplicate registration is rejected", func(t *testing.T) {
		w := app.request(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
			"name":     "Ana Again",
			"email":    "ana@example.com",
			"password": "password123",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("protected routes require a token", func(t *testing.T) {
		w := app.request(t, http.MethodGet, "/api/v1/settings", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestDailyGenerationLimit(t *testing.T) {
	app := setupAPI(t, recipeListJSON)
	token := app.registerUser(t, "bruno@example.com")

	body := gin.H{"ingredients": []string{"ovos", "queijo"}}

	for i := 0; i < quota.FreeDailyLimit; i++ {
		w := app.request(t, http.MethodPost, "/api/v1/recipes/suggestions", token, body)
		require.Equal(t, http.StatusOK, w.Code, "generation %d: %s", i+1, w.Body.String())
	}

	// The sixth request is blocked before any LLM call is made.
	before := atomic.LoadInt32(app.llmCalls)
	w := app.request(t, http.MethodPost, "/api/v1/recipes/suggestions", token, body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "limit_reached")
	assert.Equal(t, before, atomic.LoadInt32(app.llmCalls))

	t.Run("usage reflects the exhausted quota", func(t *testing.T) {
		w := app.request(t, http.MethodGet, "/api/v1/usage", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Count     int             `json:"count"`
			Limit     int             `json:"limit"`
			Remaining json.RawMessage `json:"remaining"`
			Plan      string          `json:"plan"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, quota.FreeDailyLimit, resp.Count)
		assert.Equal(t, quota.FreeDailyLimit, resp.Limit)
		assert.Equal(t, "0", string(resp.Remaining))
		assert.Equal(t, "free", resp.Plan)
	})

	t.Run("replacement is not gated", func(t *testing.T) {
		w := app.request(t, http.MethodPost, "/api/v1/recipes/replacement", token, gin.H{
			"ingredients":   []string{"ovos"},
			"exclude_names": []string{"Omelete"},
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("pro upgrade lifts the limit", func(t *testing.T) {
		w := app.request(t, http.MethodPut, "/api/v1/settings/plan", token, gin.H{"plan": "pro"})
		require.Equal(t, http.StatusOK, w.Code)

		w = app.request(t, http.MethodPost, "/api/v1/recipes/suggestions", token, body)
		assert.Equal(t, http.StatusOK, w.Code)

		w = app.request(t, http.MethodGet, "/api/v1/usage", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "unlimited")
	})
}

func TestSuggestionCacheAcrossGatedRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var calls int32
	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": recipeListJSON}},
			},
		})
	}))
	t.Cleanup(llm.Close)

	db := testhelpers.SetupTestDatabase(t)
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	chat := service.NewChatClient(&config.Config{
		LLMAPIKey: "test-key",
		LLMAPIURL: llm.URL,
		LLMModel:  "test-model",
	})

	authService := service.NewAuthService(db, "test-secret")
	settingsService := service.NewSettingsService(db)
	recipeService := service.NewRecipeService(chat, redisClient)
	tracker := quota.NewTracker(db)

	engine := router.SetupRouter(router.Deps{
		Auth:      api.NewAuthHandler(authService),
		Recipes:   api.NewRecipeHandler(recipeService, settingsService),
		Photos:    api.NewPhotoHandler(recipeService, settingsService, nil),
		Plans:     api.NewPlanHandler(recipeService, settingsService, service.NewPlanStore(redisClient)),
		Settings:  api.NewSettingsHandler(settingsService, tracker),
		Saved:     api.NewSavedRecipeHandler(service.NewSavedRecipeService(db, recipeService, settingsService)),
		Validator: authService,
		Tracker:   tracker,
	})
	app := &testAPI{engine: engine, db: db, llmCalls: &calls}

	token := app.registerUser(t, "lia@example.com")
	body := gin.H{"ingredients": []string{"ovos", "queijo"}}

	// Two identical gated requests from a free user. The quota gate
	// increments the counter between them; the second must still be served
	// from the cache.
	for i := 0; i < 2; i++ {
		w := app.request(t, http.MethodPost, "/api/v1/recipes/suggestions", token, body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), "Omelete")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// The gate counted both generations even though only one hit the LLM.
	w := app.request(t, http.MethodGet, "/api/v1/usage", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":2`)
}

func TestEmptyIngredientList(t *testing.T) {
	app := setupAPI(t, recipeListJSON)
	token := app.registerUser(t, "kaio@example.com")

	w := app.request(t, http.MethodPost, "/api/v1/recipes/suggestions", token, gin.H{
		"ingredients": []string{""},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "at least one item is required")
	assert.Equal(t, int32(0), atomic.LoadInt32(app.llmCalls))
}

func TestBlockedIngredients(t *testing.T) {
	app := setupAPI(t, recipeListJSON)
	token := app.registerUser(t, "carla@example.com")

	w := app.request(t, http.MethodPost, "/api/v1/recipes/suggestions", token, gin.H{
		"ingredients": []string{"tomate", "veneno de rato"},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error string `json:"error"`
		Term  string `json:"term"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_ingredient", resp.Error)
	assert.NotEmpty(t, resp.Term)

	// No LLM call was made for the rejected request.
	assert.Equal(t, int32(0), atomic.LoadInt32(app.llmCalls))
}

func TestMissingLLMKeyFailsClosed(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := testhelpers.SetupTestDatabase(t)
	chat := service.NewChatClient(&config.Config{LLMAPIURL: "http://localhost:1"})
	authService := service.NewAuthService(db, "test-secret")
	settingsService := service.NewSettingsService(db)
	recipeService := service.NewRecipeService(chat, nil)
	tracker := quota.NewTracker(db)

	engine := router.SetupRouter(router.Deps{
		Auth:      api.NewAuthHandler(authService),
		Recipes:   api.NewRecipeHandler(recipeService, settingsService),
		Photos:    api.NewPhotoHandler(recipeService, settingsService, nil),
		Plans:     api.NewPlanHandler(recipeService, settingsService, service.NewPlanStore(nil)),
		Settings:  api.NewSettingsHandler(settingsService, tracker),
		Saved:     api.NewSavedRecipeHandler(service.NewSavedRecipeService(db, recipeService, settingsService)),
		Validator: authService,
		Tracker:   tracker,
	})
	app := &testAPI{engine: engine, db: db, llmCalls: new(int32)}

	token := app.registerUser(t, "semkey@example.com")

	t.Run("soft-fail operations return empty results", func(t *testing.T) {
		w := app.request(t, http.MethodPost, "/api/v1/recipes/suggestions", token, gin.H{
			"ingredients": []string{"ovos"},
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"recipes":[]`)
	})

	t.Run("adjust servings surfaces the failure", func(t *testing.T) {
		w := app.request(t, http.MethodPost, "/api/v1/recipes/adjust-servings", token, gin.H{
			"recipe":           gin.H{"name": "Bolo", "ingredients": []string{"2 cups flour"}},
			"current_servings": 2,
			"target_servings":  4,
		})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "error")
	})
}

func TestSettingsEndpoints(t *testing.T) {
	app := setupAPI(t, recipeListJSON)
	token := app.registerUser(t, "diego@example.com")

	t.Run("get creates defaults on first read", func(t *testing.T) {
		w := app.request(t, http.MethodGet, "/api/v1/settings", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"spice_level":"medium"`)
	})

	t.Run("update round-trips preferences", func(t *testing.T) {
		w := app.request(t, http.MethodPut, "/api/v1/settings", token, gin.H{
			"vegetarian":     true,
			"allergies":      "amendoim",
			"pantry_staples": []string{"sal", "azeite"},
			"spice_level":    "hot",
		})
		require.Equal(t, http.StatusOK, w.Code)

		w = app.request(t, http.MethodGet, "/api/v1/settings", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"vegetarian":true`)
		assert.Contains(t, w.Body.String(), "amendoim")
	})

	t.Run("dangerous equipment is rejected", func(t *testing.T) {
		w := app.request(t, http.MethodPut, "/api/v1/settings", token, gin.H{
			"equipment": []string{"airfryer", "arma"},
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid_equipment")
	})
}

func TestSavedRecipeEndpoints(t *testing.T) {
	app := setupAPI(t, `{"keywords": ["doce"]}`)
	token := app.registerUser(t, "elisa@example.com")

	w := app.request(t, http.MethodPost, "/api/v1/saved-recipes", token, gin.H{
		"name":        "Pudim de leite",
		"description": "Classic Brazilian flan",
		"ingredients": []string{"leite condensado", "ovos"},
		"steps":       []string{"misture", "asse em banho-maria"},
		"servings":    8,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Recipe struct {
			ID string `json:"id"`
		} `json:"recipe"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.Recipe.ID)

	t.Run("list returns the saved recipe", func(t *testing.T) {
		w := app.request(t, http.MethodGet, "/api/v1/saved-recipes", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Pudim de leite")
	})

	t.Run("search filters by query", func(t *testing.T) {
		w := app.request(t, http.MethodGet, "/api/v1/saved-recipes?q=pudim", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Pudim de leite")
	})

	t.Run("delete removes the recipe", func(t *testing.T) {
		w := app.request(t, http.MethodDelete, fmt.Sprintf("/api/v1/saved-recipes/%s", created.Recipe.ID), token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = app.request(t, http.MethodGet, "/api/v1/saved-recipes", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "Pudim de leite")
	})
}

func TestWeeklyPlanEndpoints(t *testing.T) {
	planJSON := `{
		"shopping_list": ["1kg arroz"],
		"days": [{"day": "Monday", "meals": [{"meal_type": "lunch", "recipe": {"name": "Arroz com ovo", "steps": ["cozinhe"], "ingredients": ["arroz"], "servings": 2}}]}]
	}`
	app := setupAPI(t, planJSON)
	token := app.registerUser(t, "fabio@example.com")

	w := app.request(t, http.MethodPost, "/api/v1/plans/weekly", token, gin.H{
		"meal_types": []string{"lunch"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var generated struct {
		Plan json.RawMessage `json:"plan"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &generated))

	var plan map[string]interface{}
	require.NoError(t, json.Unmarshal(generated.Plan, &plan))

	t.Run("save and fetch", func(t *testing.T) {
		w := app.request(t, http.MethodPost, "/api/v1/plans", token, plan)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var saved struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))
		require.NotEmpty(t, saved.ID)

		w = app.request(t, http.MethodGet, "/api/v1/plans/"+saved.ID, token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Arroz com ovo")

		w = app.request(t, http.MethodDelete, "/api/v1/plans/"+saved.ID, token, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestPhotoEndpoints(t *testing.T) {
	t.Run("identify returns ingredients and consumes quota", func(t *testing.T) {
		app := setupAPI(t, `{"ingredients": ["tomate", "cebola"]}`)
		token := app.registerUser(t, "gabi@example.com")

		w := app.request(t, http.MethodPost, "/api/v1/photos/identify", token, gin.H{
			"photos": []string{"QUFBQQ=="},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), "tomate")

		w = app.request(t, http.MethodGet, "/api/v1/usage", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"count":1`)
	})

	t.Run("identify caps photos at three", func(t *testing.T) {
		app := setupAPI(t, `{"ingredients": []}`)
		token := app.registerUser(t, "hugo@example.com")

		w := app.request(t, http.MethodPost, "/api/v1/photos/identify", token, gin.H{
			"photos": []string{"a", "b", "c", "d"},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("archive url is 404 when the archive is disabled", func(t *testing.T) {
		app := setupAPI(t, `{"kind": "dish"}`)
		token := app.registerUser(t, "joao@example.com")

		w := app.request(t, http.MethodGet, "/api/v1/photos/url?key=uploads/x/y.jpg", token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("classify does not consume quota", func(t *testing.T) {
		app := setupAPI(t, `{"kind": "dish"}`)
		token := app.registerUser(t, "iris@example.com")

		w := app.request(t, http.MethodPost, "/api/v1/photos/classify", token, gin.H{
			"photo": "QUFBQQ==",
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "dish")

		w = app.request(t, http.MethodGet, "/api/v1/usage", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"count":0`)
	})
}
