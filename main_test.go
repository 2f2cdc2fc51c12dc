package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"
)

func TestLoadConfigWritesExample(t *testing.T) {
	tests := []struct {
		name     string
		explicit bool
	}{
		{name: "default location"},
		{name: "explicit path", explicit: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := t.TempDir()
			t.Setenv("HOME", home)

			want := filepath.Join(home, ".runcoach", "config.json")
			args := []string{"runcoach"}
			if tt.explicit {
				want = filepath.Join(t.TempDir(), "alt", "coach.json")
				args = append(args, "--config", want)
			}

			var out bytes.Buffer
			app := &cli.App{
				Name:           "runcoach",
				Writer:         &out,
				Flags:          []cli.Flag{&cli.StringFlag{Name: "config"}},
				ExitErrHandler: func(*cli.Context, error) {},
				Action: func(c *cli.Context) error {
					_, err := loadConfig(c)
					return err
				},
			}

			if err := app.Run(args); err == nil {
				t.Fatal("expected an exit error on first run")
			}
			if _, err := os.Stat(want); err != nil {
				t.Errorf("example not written to %s: %v", want, err)
			}
			if !strings.Contains(out.String(), want) {
				t.Errorf("output %q does not name %s", out.String(), want)
			}
			if tt.explicit {
				if _, err := os.Stat(filepath.Join(home, ".runcoach")); !os.IsNotExist(err) {
					t.Errorf("default config dir should not exist, stat err = %v", err)
				}
			}
		})
	}
}
