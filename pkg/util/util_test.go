package util

import (
	"os"
	"path/filepath"
	"testing"
)

type feedSection struct {
	Feed struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"feed"`
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    string
		wantErr bool
	}{
		{name: "valid section", yaml: "feed:\n  listen_addr: \":8091\"\n", want: ":8091"},
		{name: "missing section leaves zero value", yaml: "other:\n  x: 1\n", want: ""},
		{name: "malformed yaml", yaml: "feed: [unclosed", wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tc.yaml), 0o644); err != nil {
				t.Fatalf("writing temp config: %v", err)
			}
			cfg, err := LoadConfig[feedSection](path)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("%s: expected error, got none", tc.name)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Feed.ListenAddr != tc.want {
				t.Fatalf("%s: listen_addr mismatch\nwant: %q\ngot:  %q", tc.name, tc.want, cfg.Feed.ListenAddr)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig[feedSection]("does-not-exist.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
