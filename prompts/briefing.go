package prompts

// Briefing returns the prompt for the spoken morning briefing.
func Briefing() string {
	return `Write a calm, analyst-style morning briefing for a voice assistant.

Hard constraints:
- 2-3 minutes spoken max.
- Short sentences. Clear section headers.
- No URLs. No emojis. Plain punctuation.

Structure:
1) What changed since yesterday (high signal only)
2) Regional update
3) Allied response signals
4) Legal and docket watch: if none, say none
5) What to watch today (2-4 concrete signals)

Tone: calm analyst. No hype. No speculation beyond "watch for X".
End with: "End of briefing."`
}
