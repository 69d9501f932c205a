package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Ritikayogi/AI-Grader/internal/extract"
	"github.com/Ritikayogi/AI-Grader/internal/model"
	"github.com/Ritikayogi/AI-Grader/internal/segment"
)

// TopicReport records what happened to one topic.
type TopicReport struct {
	Topic   string
	Blocks  map[model.Role]int
	Rows    int
	Skipped string
}

// Pipeline extracts, segments and aligns the documents of a topic.
type Pipeline struct {
	Extractor extract.Extractor
	Segmenter segment.Segmenter
}

// NewPipeline creates a pipeline. A nil segmenter uses segment.New().
func NewPipeline(ex extract.Extractor, seg segment.Segmenter) *Pipeline {
	if seg == nil {
		seg = segment.New()
	}
	return &Pipeline{Extractor: ex, Segmenter: seg}
}

// Topic builds the rows of a single topic. Extraction failures are returned as
// *extract.ExtractionError and empty block sequences as ErrAlignmentEmpty.
func (p *Pipeline) Topic(ctx context.Context, tf TopicFiles) ([]model.Row, TopicReport, error) {
	rep := TopicReport{Topic: tf.Topic, Blocks: map[model.Role]int{}}
	if missing := tf.Missing(); len(missing) > 0 {
		err := fmt.Errorf("topic %s: %w: %s", tf.Topic, ErrMissingFiles, joinRoles(missing))
		rep.Skipped = err.Error()
		return nil, rep, err
	}

	blocks := make(map[model.Role][]model.Block, len(model.Roles))
	for _, r := range model.Roles {
		doc, err := p.Extractor.Extract(ctx, tf.Path(r))
		if err != nil {
			rep.Skipped = err.Error()
			return nil, rep, err
		}
		blocks[r] = p.Segmenter.Segment(doc.Text)
		rep.Blocks[r] = len(blocks[r])
		slog.Info("segmented document",
			"topic", tf.Topic, "role", r, "pages", doc.PageCount, "blocks", len(blocks[r]))
	}

	rows, err := Align(tf.Topic,
		blocks[model.RoleQuestionPaper], blocks[model.RoleMarkScheme], blocks[model.RoleCandidatePaper])
	if err != nil {
		err = fmt.Errorf("topic %s: %w", tf.Topic, err)
		rep.Skipped = err.Error()
		return nil, rep, err
	}
	rep.Rows = len(rows)
	return rows, rep, nil
}

// Batch processes every topic found in dir and concatenates their rows.
// Incomplete, unreadable or unalignable topics are skipped with a warning;
// only a directory error or cancellation stops the batch.
func (p *Pipeline) Batch(ctx context.Context, dir string) ([]model.Row, []TopicReport, error) {
	topics, err := DiscoverTopics(dir)
	if err != nil {
		return nil, nil, err
	}
	names := make([]string, len(topics))
	for i, tf := range topics {
		names[i] = tf.Topic
	}
	slog.Info("detected topics", "dir", dir, "topics", names)

	var all []model.Row
	reports := make([]TopicReport, 0, len(topics))
	for _, tf := range topics {
		if err := ctx.Err(); err != nil {
			return nil, reports, err
		}
		rows, rep, err := p.Topic(ctx, tf)
		reports = append(reports, rep)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, reports, err
			}
			slog.Warn("skipping topic", "topic", tf.Topic, "reason", err)
			continue
		}
		all = append(all, rows...)
	}
	return all, reports, nil
}

func joinRoles(roles []model.Role) string {
	s := make([]string, len(roles))
	for i, r := range roles {
		s[i] = string(r)
	}
	return strings.Join(s, ", ")
}
