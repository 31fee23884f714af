package app

import (
	"bytes"
	"strings"
	"testing"
)

func setTestEnv(t *testing.T) {
	t.Helper()
	// 到達不能なRedisを指定する（接続失敗でserveが即時エラーになる）
	t.Setenv("REDIS_URL", "redis://127.0.0.1:1/0")
	t.Setenv("WEIBO_CLIENT_ID", "test-client-id")
	t.Setenv("WEIBO_CLIENT_SECRET", "test-client-secret")
	t.Setenv("WEIBO_REDIRECT_URL", "http://localhost:8080/auth/weibo/")
	t.Setenv("BASE_URL", "http://localhost:8080")
}

func TestRun_ServeCommand_FailsWithoutRedis(t *testing.T) {
	setTestEnv(t)

	var buf bytes.Buffer
	err := Run(&buf, []string{"serve"})
	if err == nil {
		t.Fatal("Run(serve) should fail when redis is unreachable")
	}
	if !strings.Contains(err.Error(), "redis") {
		t.Errorf("error = %q, want redis connection error", err.Error())
	}
}

func TestRun_WithMissingEnv_ReturnsError(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	t.Setenv("WEIBO_CLIENT_ID", "")
	t.Setenv("WEIBO_CLIENT_SECRET", "")
	t.Setenv("WEIBO_REDIRECT_URL", "")
	t.Setenv("BASE_URL", "")

	var buf bytes.Buffer
	err := Run(&buf, []string{"serve"})
	if err == nil {
		t.Fatal("Run with missing env should return error")
	}
}

func TestRun_HealthcheckCommand_FailsWithoutServer(t *testing.T) {
	t.Setenv("SERVER_PORT", "1") // 到達不能なポート

	var buf bytes.Buffer
	err := Run(&buf, []string{"healthcheck"})
	if err == nil {
		t.Fatal("Run(healthcheck) should fail when no server is listening")
	}
}

func TestInit_LoadsConfigAndLogger(t *testing.T) {
	setTestEnv(t)

	var buf bytes.Buffer
	cfg, err := Init(&buf)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if cfg.WeiboClientID != "test-client-id" {
		t.Errorf("WeiboClientID = %q", cfg.WeiboClientID)
	}
}
