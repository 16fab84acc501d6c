package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"filefly/cmd/security/password"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "filefly.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	got, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), got); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_YAMLOverlaysDefaults(t *testing.T) {
	p := writeConfig(t, `
http:
  addr: 0.0.0.0:9000
log:
  level: debug
  format: json
storage:
  driver: memory
accounts:
  username:
    min_length: 3
    max_length: 20
  password:
    algorithm: bcrypt
    bcrypt_cost: 10
sessions:
  short: 15m
  long: 48h
  elevated: 5m
api:
  cookie_name: filefly_sid
  login_limit:
    max_failures: 3
    window: 1m
`)

	got, err := LoadConfig(p)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	want := DefaultConfig()
	want.HTTP.Addr = "0.0.0.0:9000"
	want.Log.Level = "debug"
	want.Log.Format = "json"
	want.Storage.Driver = DriverMemory
	want.Accounts.Username.MinLength = 3
	want.Accounts.Username.MaxLength = 20
	want.Accounts.Password.Algorithm = password.AlgorithmBcrypt
	want.Accounts.Password.BcryptCost = 10
	want.Sessions.Short = 15 * time.Minute
	want.Sessions.Long = 48 * time.Hour
	want.Sessions.Elevated = 5 * time.Minute
	want.API.CookieName = "filefly_sid"
	want.API.LoginLimit.MaxFailures = 3
	want.API.LoginLimit.Window = time.Minute

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	p := writeConfig(t, "http:\n  addr: 0.0.0.0:9000\nstorage:\n  driver: memory\n")
	t.Setenv("FILEFLY_HTTP_ADDR", "127.0.0.1:7000")
	t.Setenv("FILEFLY_SESSION_SHORT", "20m")
	t.Setenv("FILEFLY_USERNAME_MIN_LEN", "5")
	t.Setenv("FILEFLY_API_COOKIE_NAME", "fly")
	t.Setenv("FILEFLY_REDIS_ADDR", "127.0.0.1:6379")

	got, err := LoadConfig(p)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.HTTP.Addr != "127.0.0.1:7000" {
		t.Fatalf("http.addr=%q", got.HTTP.Addr)
	}
	if got.Sessions.Short != 20*time.Minute {
		t.Fatalf("sessions.short=%v", got.Sessions.Short)
	}
	if got.Accounts.Username.MinLength != 5 {
		t.Fatalf("username.min_length=%d", got.Accounts.Username.MinLength)
	}
	if got.API.CookieName != "fly" || got.Redis.Addr != "127.0.0.1:6379" {
		t.Fatalf("unexpected api/redis: %+v %+v", got.API, got.Redis)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	cases := []struct {
		name string
		body string
		env  map[string]string
		want string
	}{
		{name: "bad yaml", body: "http: [", want: "filefly.yaml"},
		{name: "unknown driver", body: "storage:\n  driver: leveldb\n", want: "storage.driver"},
		{name: "postgres without url", body: "storage:\n  driver: postgres\n", want: "database_url"},
		{name: "name bounds", body: "storage:\n  driver: memory\naccounts:\n  username:\n    min_length: 10\n    max_length: 5\n", want: "accounts"},
		{name: "name max over 150", body: "storage:\n  driver: memory\naccounts:\n  username:\n    max_length: 151\n", want: "accounts"},
		{name: "bcrypt too cheap", body: "storage:\n  driver: memory\naccounts:\n  password:\n    algorithm: bcrypt\n    bcrypt_cost: 4\n", want: "accounts"},
		{name: "elevated not shortest", body: "storage:\n  driver: memory\nsessions:\n  elevated: 2h\n", want: "sessions"},
		{name: "log format", body: "log:\n  format: xml\n", want: "log.format"},
		{name: "log level", body: "log:\n  level: loud\n", want: "log.level"},
		{name: "strict env", body: "storage:\n  driver: memory\n", env: map[string]string{"FILEFLY_SESSION_SHORT": "soon"}, want: "FILEFLY_SESSION_SHORT"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig(writeConfig(t, tc.body))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q should mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("FILEFLY_T_INT", "-3")
	t.Setenv("FILEFLY_T_DUR", "0s")
	t.Setenv("FILEFLY_T_BOOL", "maybe")

	if got := EnvInt("FILEFLY_T_INT", 7); got != 7 {
		t.Fatalf("EnvInt negative should keep default, got %d", got)
	}
	if got := EnvDuration("FILEFLY_T_DUR", time.Second); got != time.Second {
		t.Fatalf("EnvDuration zero should keep default, got %v", got)
	}
	if got := EnvBool("FILEFLY_T_BOOL", true); !got {
		t.Fatalf("EnvBool unparseable should keep default")
	}
}
