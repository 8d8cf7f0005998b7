package database

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"

	"github.com/Spectrumgrid/grade-pilot/internal/config"
)

func TestNewArtifactRepository(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name    string
		cfg     config.Config
		want    string
		wantErr bool
	}{
		{
			name: "filesystem",
			cfg:  config.Config{StoreDriver: config.StoreDriverFS, SessionsDir: filepath.Join(t.TempDir(), "s")},
			want: "*repository.FSArtifactRepository",
		},
		{
			name: "redis",
			cfg:  config.Config{StoreDriver: config.StoreDriverRedis, RedisURL: "redis://" + mr.Addr() + "/0"},
			want: "*repository.RedisArtifactRepository",
		},
		{
			name: "memory",
			cfg:  config.Config{StoreDriver: config.StoreDriverMemory},
			want: "*repository.MemoryArtifactRepository",
		},
		{
			name:    "unknown",
			cfg:     config.Config{StoreDriver: "postgres"},
			wantErr: true,
		},
		{
			name:    "invalid redis url",
			cfg:     config.Config{StoreDriver: config.StoreDriverRedis, RedisURL: "not-a-url"},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo, closeFn, err := NewArtifactRepository(context.Background(), &tc.cfg, zerolog.Nop())
			defer closeFn()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewArtifactRepository: %v", err)
			}
			if got := fmt.Sprintf("%T", repo); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}
