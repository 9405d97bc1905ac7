package manifestcache_test

import (
	"testing"

	"github.com/nextmu/updateservice/pkg/domain"
	"github.com/nextmu/updateservice/pkg/manifestcache"
)

func TestKeyShape(t *testing.T) {
	key := manifestcache.Key("0.0.0", "1.2.3", domain.OSWindows, domain.TextureBC7)
	want := "update-0.0.0-1.2.3-0-2"
	if key != want {
		t.Fatalf("Key() = %q, want %q", key, want)
	}
}
