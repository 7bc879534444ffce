package conversation

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Persona and instruction strings are per-call constants, never derived from
// user input.
const (
	textPersona  = "你是一個友善的AI助理。"
	imagePersona = "你是一個會分析圖片的AI助理。"

	imageInstruction = "請描述這張圖片。"

	// imagePlaceholder stands in for the pixel payload in transcripts so the
	// stored history stays bounded regardless of image volume.
	imagePlaceholder = "[圖片]"
)

// BuildTextPrompt composes the completion prompt for a text turn: the
// accumulated history followed by the new user turn and an open assistant
// tag. With no prior history the prompt is exactly one turn.
func BuildTextPrompt(history, userText string) string {
	return fmt.Sprintf("%s\nUser: %s\nAI:", history, userText)
}

// AppendTurn records one completed user/assistant exchange on the transcript.
func AppendTurn(history, userTurn, reply string) string {
	return fmt.Sprintf("%s\nUser: %s\nAI: %s", history, userTurn, reply)
}

// TrimTranscript drops the oldest whole turns until the transcript fits in
// maxChars. A non-positive maxChars leaves the transcript unbounded; a single
// turn is never split even when it alone exceeds the cap.
func TrimTranscript(transcript string, maxChars int) string {
	if maxChars <= 0 {
		return transcript
	}
	for len(transcript) > maxChars {
		next := strings.Index(transcript[1:], "\nUser: ")
		if next < 0 {
			break
		}
		transcript = transcript[next+1:]
	}
	return transcript
}

// ImageDataURI embeds normalized JPEG bytes as a base64 data URI suitable for
// a vision completion request.
func ImageDataURI(jpegBytes []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpegBytes)
}
