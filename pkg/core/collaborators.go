package core

import "context"

// Transcriber turns the uploaded audio into diarized utterances and an annotated transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*Utterances, error)
	Annotate(ctx context.Context, utterances Utterances) (*Transcript, error)
}

// ResumeExtractor reads the uploaded resume into structured fields.
type ResumeExtractor interface {
	Extract(ctx context.Context, rec Record) (*Resume, error)
	EnrichGuest(ctx context.Context, rec Record) (*Guest, error)
}

// ThumbnailGenerator composites the thumbnail rasters for a record.
type ThumbnailGenerator interface {
	Generate(ctx context.Context, rec Record) (Thumbnails, error)
}

// TextGenerator produces the generated text attributes.
type TextGenerator interface {
	Generate(ctx context.Context, attr string, rec Record) (string, error)
	// Revise rewrites the current value of attr following instructions.
	Revise(ctx context.Context, attr string, rec Record, instructions string) (string, error)
}
