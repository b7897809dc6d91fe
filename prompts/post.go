// Package prompts builds the instructions sent to the text-generation model.
// The rules they state are advisory; post.Normalizer enforces them.
package prompts

import (
	"fmt"
	"strings"

	"github.com/newghostisfun/dailypost/post"
)

// targetSpread is how far below the hard limit the requested length range starts.
const targetSpread = 40

// Request selects the template and optional context for a post prompt.
type Request struct {
	Mode post.Mode
	// Context is the human-written signal summary. Only the special template
	// uses it.
	Context string
}

// Build returns the post prompt for req under profile.
func Build(req Request, profile post.Profile) string {
	if req.Mode == post.ModeSpecial {
		return specialPrompt(profile, req.Context)
	}
	return normalPrompt(profile)
}

func lengthRule(profile post.Profile) string {
	low := profile.MaxLength - targetSpread
	if low < 1 {
		low = 1
	}
	return fmt.Sprintf("Target length: %d-%d characters. Hard max %d.", low, profile.MaxLength, profile.MaxLength)
}

func normalPrompt(profile post.Profile) string {
	return fmt.Sprintf(`Write ONE Bluesky post in a crisp, plain style.

Hard rules:
- Must start with exactly: "%s" (including the space).
- No other hashtags. No emojis. No links. No first-person.
- %s
- Voice: sceptical, grounded, mildly admonishing. Neutral and analytic, no hype.
- Must convey: global risk still high; driven more by baseless words than action; leaders need to lead not soundbite; decisions and consequences lag behind noise.
- Do NOT name specific regions or theatres.

Output ONLY the post text.`, profile.Prefix(post.ModeNormal), lengthRule(profile))
}

func specialPrompt(profile post.Profile, summary string) string {
	var contextLine string
	if s := strings.TrimSpace(summary); s != "" {
		contextLine = "\nContext: High-profile signal: " + s + "\n"
	}

	return fmt.Sprintf(`Write ONE Bluesky post in a crisp, plain style.

Hard rules:
- Must start with exactly: "%s" (including the space), then immediately "%s ".
- No other hashtags. No emojis. No links. No first-person.
- %s
- Style: factual, no waffle, no list of regions.
- Say what happened (high-profile), and what it changes to watch today.
- Avoid filler words like: "posture", "heightened", "reflects", "such as", "complex".
%s
Output ONLY the post text.`, profile.Tag+" ", profile.SpecialMarker, lengthRule(profile), contextLine)
}
