// Package prompt builds the natural-language instructions sent to the
// generative models.
package prompt

import (
	"fmt"
	"strings"
)

// Attributes are the optional character descriptors a caller may attach to a
// prompt.
type Attributes struct {
	Gender            string
	Origin            string
	SkinTone          string
	Style             string
	CharacterName     string
	AdditionalDetails string
}

// DefaultStoryboardSeconds is used when a video request omits its duration.
const DefaultStoryboardSeconds = 15

// Compose appends each non-blank attribute to base as a bracketed tag. The tag
// order is fixed: gender, origin, skin tone, style, character, additional
// details.
func Compose(base string, a Attributes) string {
	parts := []string{strings.TrimSpace(base)}
	for _, tag := range []struct {
		label string
		value string
	}{
		{"Gender", a.Gender},
		{"Origin", a.Origin},
		{"Skin Tone", a.SkinTone},
		{"Style", a.Style},
		{"Character", a.CharacterName},
		{"Additional Details", a.AdditionalDetails},
	} {
		value := strings.TrimSpace(tag.value)
		if value == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("[%s: %s]", tag.label, value))
	}
	if parts[0] == "" {
		parts = parts[1:]
	}
	return strings.Join(parts, " ")
}

// ImageBrief asks the model for a detailed visual description of the composed
// prompt.
func ImageBrief(composed string, hasReference bool) string {
	var b strings.Builder
	b.WriteString("You are an art director preparing a brief for an image generation model.\n")
	b.WriteString("Write a detailed visual description of the image requested below. ")
	b.WriteString("Cover subject, pose, clothing, lighting, camera angle, background and mood.\n")
	if hasReference {
		b.WriteString("A reference outfit image is attached; describe the clothing so it matches that image.\n")
	}
	b.WriteString("\nRequest: ")
	b.WriteString(composed)
	return b.String()
}

// Storyboard asks the model for a shot-by-shot storyboard of a short video.
// A non-positive duration falls back to DefaultStoryboardSeconds.
func Storyboard(base string, durationSeconds int, a Attributes) string {
	if durationSeconds <= 0 {
		durationSeconds = DefaultStoryboardSeconds
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Create a detailed storyboard for a %d-second video.\n", durationSeconds)
	b.WriteString("List each scene with its timestamp range, camera movement, action and visual details.\n")
	b.WriteString("\nConcept: ")
	b.WriteString(Compose(base, a))
	return b.String()
}
