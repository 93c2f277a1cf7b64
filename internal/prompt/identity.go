package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

const (
	// FaceSwapTemplateVersion identifies the face swap instruction text.
	FaceSwapTemplateVersion = "faceswap-v2"
	// ReshootTemplateVersion identifies the virtual reshoot instruction text.
	ReshootTemplateVersion = "reshoot-v1"

	unspecified = "unspecified"
)

// IdentityMeta is interpolated into the identity preservation templates.
type IdentityMeta struct {
	Gender string
	Origin string
}

func (m IdentityMeta) withDefaults() IdentityMeta {
	m.Gender = strings.TrimSpace(m.Gender)
	if m.Gender == "" {
		m.Gender = unspecified
	}
	m.Origin = strings.TrimSpace(m.Origin)
	if m.Origin == "" {
		m.Origin = unspecified
	}
	return m
}

var (
	faceSwapText = `You are performing a face identity transfer.
The first group of images are the INPUT images. The second group are the REFERENCE face images.
Rules:
1. Preserve the exact facial identity from the REFERENCE images: bone structure, eye shape, nose, lips and skin texture.
2. Keep the pose, clothing, background and lighting of the INPUT images unchanged.
3. Blend skin tone and lighting at the face boundary so no seams are visible.
4. Do not add accessories, makeup or expressions that are not present in the references.
Subject metadata: gender={{.Meta.Gender}}, origin={{.Meta.Origin}}.
{{- if .UserPrompt}}
Additional instructions: {{.UserPrompt}}
{{- end}}
Describe in detail the resulting image and any identity features that could not be preserved.`

	reshootText = `You are directing a virtual photo reshoot.
The first images are BASE photos. The last image is the AVATAR whose identity must appear in every shot.
Rules:
1. Recreate each BASE photo with the AVATAR's face and identity preserved exactly.
2. Keep the composition, outfit, framing and lighting of each BASE photo.
3. Match skin tone across face, neck and hands.
4. Keep facial proportions consistent across every output.
Subject metadata: gender={{.Meta.Gender}}, origin={{.Meta.Origin}}.
For each BASE photo, describe the reshot image and note any identity drift.`

	faceSwapTemplate = template.Must(template.New(FaceSwapTemplateVersion).Parse(faceSwapText))
	reshootTemplate  = template.Must(template.New(ReshootTemplateVersion).Parse(reshootText))
)

type identityData struct {
	Meta       IdentityMeta
	UserPrompt string
}

// FaceSwap renders the face identity transfer instruction.
func FaceSwap(meta IdentityMeta, userPrompt string) (string, error) {
	return render(faceSwapTemplate, identityData{Meta: meta.withDefaults(), UserPrompt: strings.TrimSpace(userPrompt)})
}

// VirtualReshoot renders the virtual reshoot instruction.
func VirtualReshoot(meta IdentityMeta) (string, error) {
	return render(reshootTemplate, identityData{Meta: meta.withDefaults()})
}

func render(tmpl *template.Template, data identityData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute %s template: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
