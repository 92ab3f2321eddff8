package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/intelligenttrading/data-sources/internal/settings"
)

func TestLoadEnvMergesFileUnderProcess(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".env")
	body := "DEPLOYMENT_TYPE=LOCAL\nITT_MAIN_TEST_ONLY_FILE=file\nITT_MAIN_TEST_BOTH=file\n"
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("ITT_MAIN_TEST_BOTH", "process")

	env, err := loadEnv(p)
	if err != nil {
		t.Fatalf("loadEnv returned error: %v", err)
	}
	if env.Get("ITT_MAIN_TEST_ONLY_FILE") != "file" {
		t.Fatalf("expected file value to be present")
	}
	if env.Get("ITT_MAIN_TEST_BOTH") != "process" {
		t.Fatalf("expected process value to win, got %q", env.Get("ITT_MAIN_TEST_BOTH"))
	}
}

func TestLoadEnvMissingFileIsOptional(t *testing.T) {
	t.Setenv("ITT_MAIN_TEST_PROCESS", "1")

	env, err := loadEnv(filepath.Join(t.TempDir(), ".env"))
	if err != nil {
		t.Fatalf("expected missing env file to be skipped, got %v", err)
	}
	if env.Get("ITT_MAIN_TEST_PROCESS") != "1" {
		t.Fatalf("expected process environment")
	}
}

func TestOverridesOnlySetProvidedFlags(t *testing.T) {
	f := &cliFlags{rateLimitRPS: -1, rateLimitBurst: 5}
	o := f.overrides()
	if o.Port != nil || o.RateLimitRPS != nil {
		t.Fatalf("expected unset flags to stay nil, got %+v", o)
	}
	if o.RateLimitBurst == nil || *o.RateLimitBurst != 5 {
		t.Fatalf("expected burst override")
	}
}

func TestPrintSettings(t *testing.T) {
	s, err := settings.Resolve(settings.Env{settings.EnvDeploymentType: "DEMO", settings.EnvSecretKey: "hidden"},
		settings.WithOverlayDir(t.TempDir()),
	)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	var buf bytes.Buffer
	if err := printSettings(&buf, s); err != nil {
		t.Fatalf("printSettings returned error: %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if out["mode"] != "demo" {
		t.Fatalf("unexpected output %v", out)
	}
	if bytes.Contains(buf.Bytes(), []byte("hidden")) {
		t.Fatalf("secret key printed: %s", buf.String())
	}
}
