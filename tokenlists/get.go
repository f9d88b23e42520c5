package tokenlists

import (
	"context"
	"fmt"
	"time"

	getter "github.com/hashicorp/go-getter"
)

// ListsDownload downloads token list files from the given source into dst.
//
// Params:
//   - src: a go-getter source, e.g. a GitHub directory or an https URL
//   - dst: the directory to download the lists to
//
// Returns:
//   - error: if the lists cannot be downloaded
func ListsDownload(src, dst string) error {
	deadline := time.Now().Add(120 * time.Second)
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()

	opts := getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Mode: getter.ClientModeAny,
		Detectors: []getter.Detector{
			&getter.GitHubDetector{},
		},
		Getters: map[string]getter.Getter{
			"git":   &getter.GitGetter{},
			"http":  &getter.HttpGetter{},
			"https": &getter.HttpGetter{},
			"file":  &getter.FileGetter{},
		},
	}
	if err := opts.Get(); err != nil {
		return fmt.Errorf("failed to download token lists: %w", err)
	}
	return nil
}
