package publishers

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadRegistryYAML(t *testing.T) {
	t.Setenv("TEST_SINK_TOKEN", "secret-token")

	path := writeConfig(t, "publishers.yaml", `publishers:
  - id: digest-webhook
    type: http
    http:
      url: https://hooks.example.com/digest
      headers:
        Authorization: Bearer ${TEST_SINK_TOKEN}
  - id: digest-queue
    type: queue
    enabled: false
    queue:
      provider: aws-sqs
      aws:
        uri: https://sqs.us-east-1.amazonaws.com/123456789/digests
        region: us-east-1
        access_key_id: AKIATEST
        secret_access_key: testsecret
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}

	all := reg.All()
	if len(all) != 2 {
		t.Fatalf("got %d publishers, want 2", len(all))
	}

	hook, ok := reg.ByID("digest-webhook")
	if !ok {
		t.Fatal("digest-webhook not found")
	}
	if hook.HTTP == nil {
		t.Fatal("http config missing")
	}
	if got := hook.HTTP.Headers["Authorization"]; got != "Bearer secret-token" {
		t.Errorf("header = %q, want env-expanded", got)
	}
	if hook.HTTP.Method != "POST" {
		t.Errorf("method = %q, want POST default", hook.HTTP.Method)
	}
	if hook.HTTP.TimeoutSeconds != httpDefaultTimeoutSeconds {
		t.Errorf("timeout = %d, want default", hook.HTTP.TimeoutSeconds)
	}

	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "digest-webhook" {
		t.Errorf("enabled = %+v, want only digest-webhook", enabled)
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	path := writeConfig(t, "publishers.json", `{
  "publishers": [
    {
      "id": "gcp-digest",
      "type": "queue",
      "queue": {
        "provider": "gcp",
        "gcp": {"project_id": "little-little", "topic": "news-digests"}
      }
    }
  ]
}`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	cfg, ok := reg.ByID("gcp-digest")
	if !ok {
		t.Fatal("gcp-digest not found")
	}
	if cfg.Queue == nil || cfg.Queue.GCP == nil || cfg.Queue.GCP.Topic != "news-digests" {
		t.Errorf("gcp config = %+v", cfg.Queue)
	}
	if !cfg.EnabledValue() {
		t.Error("enabled must default to true")
	}
}

func TestLoadRegistryValidation(t *testing.T) {
	cases := map[string]string{
		"missing id":       "publishers:\n  - type: http\n    http:\n      url: https://x\n",
		"unknown type":     "publishers:\n  - id: a\n    type: carrier-pigeon\n",
		"http without url": "publishers:\n  - id: a\n    type: http\n    http: {}\n",
		"queue without provider": `publishers:
  - id: a
    type: queue
    queue: {}
`,
		"sqs without region": `publishers:
  - id: a
    type: queue
    queue:
      provider: aws-sqs
      aws:
        uri: https://sqs.example.com/q
        access_key_id: k
        secret_access_key: s
`,
		"sns without topic": `publishers:
  - id: a
    type: queue
    queue:
      provider: aws-sns
      sns:
        region: us-east-1
        access_key_id: k
        secret_access_key: s
`,
		"gcp without project": `publishers:
  - id: a
    type: queue
    queue:
      provider: gcp
      gcp:
        topic: t
`,
		"duplicate ids": `publishers:
  - id: a
    type: http
    http:
      url: https://x
  - id: a
    type: http
    http:
      url: https://y
`,
		"empty list": "publishers: []\n",
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeConfig(t, "publishers.yaml", content)
			if _, err := LoadRegistry(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadRegistryMissingFile(t *testing.T) {
	if _, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := LoadRegistry("  "); err == nil {
		t.Fatal("expected error for blank path")
	}
}
