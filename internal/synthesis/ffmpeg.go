package synthesis

import (
	"context"
	"fmt"
	"os/exec"
)

// FFmpegTransformer shells out to ffmpeg to apply the atempo speed filter
type FFmpegTransformer struct{}

// NewFFmpegTransformer creates the ffmpeg-backed speed transform
func NewFFmpegTransformer() *FFmpegTransformer {
	return &FFmpegTransformer{}
}

// Available returns true if ffmpeg is on the PATH
func (t *FFmpegTransformer) Available() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// SpeedUp writes a copy of inPath at the given tempo to outPath.
// ffmpeg's atempo filter accepts rates in [0.5, 2.0]; config validation
// keeps the configured rate inside that range.
func (t *FFmpegTransformer) SpeedUp(ctx context.Context, inPath, outPath string, rate float64) error {
	cmd := exec.CommandContext(ctx,
		"ffmpeg", "-i", inPath,
		"-filter:a", fmt.Sprintf("atempo=%g", rate),
		"-y",
		outPath,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg atempo failed: %w\n%s", err, string(out))
	}
	return nil
}
