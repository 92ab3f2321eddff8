package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".env")
	body := "DEPLOYMENT_TYPE=LOCAL\nSECRET_KEY=dev-secret\nsite_base_url=http://localhost:8080\n"
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	env, err := LoadEnvFile(p)
	if err != nil {
		t.Fatalf("LoadEnvFile returned error: %v", err)
	}
	if env.Get(EnvDeploymentType) != "LOCAL" || env.Get(EnvSecretKey) != "dev-secret" {
		t.Fatalf("unexpected env %v", env)
	}
	if env.Get(EnvSiteBaseURL) != "http://localhost:8080" {
		t.Fatalf("expected keys to be upper-cased, got %v", env)
	}
}

func TestLoadEnvFileMissing(t *testing.T) {
	_, err := LoadEnvFile(filepath.Join(t.TempDir(), ".env"))
	if !IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestOSEnvAndMerge(t *testing.T) {
	t.Setenv("ITT_SETTINGS_TEST", "from-process")

	env := OSEnv()
	if env.Get("ITT_SETTINGS_TEST") != "from-process" {
		t.Fatalf("expected process variable in snapshot")
	}

	file := Env{"ITT_SETTINGS_TEST": "from-file", "ONLY_IN_FILE": "yes"}
	merged := file.Merge(env)
	if merged.Get("ITT_SETTINGS_TEST") != "from-process" {
		t.Fatalf("expected process env to win, got %q", merged.Get("ITT_SETTINGS_TEST"))
	}
	if merged.Get("ONLY_IN_FILE") != "yes" {
		t.Fatalf("expected file-only value to survive")
	}
	if file.Get("ITT_SETTINGS_TEST") != "from-file" {
		t.Fatalf("merge must not mutate its receiver")
	}
	if got := merged.GetOrDefault("NOT_SET_ANYWHERE", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
