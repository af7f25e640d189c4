package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/wolfman30/chatbot-decision-core/internal/config"
	"github.com/wolfman30/chatbot-decision-core/internal/escalation"
)

func TestSetupMetricsExposesDecisionMetrics(t *testing.T) {
	handler, m := setupMetrics()
	require.NotNil(t, handler)
	require.NotNil(t, m)

	m.ObserveEscalation("request")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "chatcore_decision_escalations_total")
	assert.Contains(t, body, "go_goroutines")
}

func TestLoadTriggers(t *testing.T) {
	triggers, err := loadTriggers("")
	require.NoError(t, err)
	assert.Nil(t, triggers)

	path := filepath.Join(t.TempDir(), "triggers.yaml")
	doc := "- type: keyword\n  value: refund, cancel\n- type: frustration\n  threshold: 60\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	triggers, err = loadTriggers(path)
	require.NoError(t, err)
	require.Len(t, triggers, 2)
	assert.Equal(t, escalation.TriggerKeyword, triggers[0].Type)

	_, err = loadTriggers(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestNeedsAWS(t *testing.T) {
	assert.False(t, needsAWS(&appconfig.Config{}))
	assert.True(t, needsAWS(&appconfig.Config{BedrockModelID: "m"}))
	assert.True(t, needsAWS(&appconfig.Config{KnowledgeBucket: "kb"}))
}
