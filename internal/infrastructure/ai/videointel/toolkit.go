package videointel

import (
	"context"

	"github.com/reelgauge/reelgauge/internal/application/evaluation"
	"github.com/reelgauge/reelgauge/internal/domain/rubric"
)

// Toolkit performs the mechanical media operations through the annotation
// service's processing endpoints.
type Toolkit struct {
	client *Client
}

// NewToolkit wraps the annotation client.
func NewToolkit(client *Client) *Toolkit {
	return &Toolkit{client: client}
}

type mediaRequest struct {
	Media evaluation.MediaRef `json:"media"`
}

// Probe reads the technical metadata of the video.
func (t *Toolkit) Probe(ctx context.Context, ref evaluation.MediaRef) (*evaluation.MediaMetadata, error) {
	var meta evaluation.MediaMetadata
	if err := t.client.postJSON(ctx, "/v1/media/probe", mediaRequest{Media: ref}, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

type trimRequest struct {
	Media   evaluation.MediaRef `json:"media"`
	Seconds float64             `json:"seconds"`
}

type trimResponse struct {
	Media evaluation.MediaRef `json:"media"`
}

// TrimHead derives a new object holding the first seconds of the video.
func (t *Toolkit) TrimHead(ctx context.Context, ref evaluation.MediaRef, seconds float64) (evaluation.MediaRef, error) {
	var resp trimResponse
	if err := t.client.postJSON(ctx, "/v1/media/trim", trimRequest{Media: ref, Seconds: seconds}, &resp); err != nil {
		return evaluation.MediaRef{}, err
	}
	resp.Media.Segment = rubric.SegmentFirst5Secs
	return resp.Media, nil
}

type keyframesResponse struct {
	Keyframes []evaluation.Keyframe `json:"keyframes"`
}

// Keyframes extracts representative frames at the detected shot changes.
func (t *Toolkit) Keyframes(ctx context.Context, ref evaluation.MediaRef) ([]evaluation.Keyframe, error) {
	var resp keyframesResponse
	if err := t.client.postJSON(ctx, "/v1/media/keyframes", mediaRequest{Media: ref}, &resp); err != nil {
		return nil, err
	}
	return resp.Keyframes, nil
}

// Volume profiles the loudness envelope of the audio track.
func (t *Toolkit) Volume(ctx context.Context, ref evaluation.MediaRef) (*evaluation.VolumeProfile, error) {
	var profile evaluation.VolumeProfile
	if err := t.client.postJSON(ctx, "/v1/media/volume", mediaRequest{Media: ref}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Audio classifies the richness of the audio track.
func (t *Toolkit) Audio(ctx context.Context, ref evaluation.MediaRef) (*evaluation.AudioRichness, error) {
	var richness evaluation.AudioRichness
	if err := t.client.postJSON(ctx, "/v1/media/audio", mediaRequest{Media: ref}, &richness); err != nil {
		return nil, err
	}
	return &richness, nil
}
