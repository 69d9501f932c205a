package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Ritikayogi/AI-Grader/internal/model"
)

// TopicFiles holds the role files found for one topic.
type TopicFiles struct {
	Topic string
	Paths map[model.Role]string
}

// Path returns the file for a role, or "" if it was not found.
func (tf TopicFiles) Path(r model.Role) string {
	return tf.Paths[r]
}

// Missing lists the roles with no file, in QP, MS, CP order.
func (tf TopicFiles) Missing() []model.Role {
	var missing []model.Role
	for _, r := range model.Roles {
		if tf.Paths[r] == "" {
			missing = append(missing, r)
		}
	}
	return missing
}

// FilesFor builds the conventional <topic>_<ROLE>.pdf paths inside dir,
// keeping only the files that exist.
func FilesFor(dir, topic string) TopicFiles {
	tf := TopicFiles{Topic: topic, Paths: map[model.Role]string{}}
	for _, r := range model.Roles {
		p := filepath.Join(dir, fmt.Sprintf("%s_%s.pdf", topic, r))
		if _, err := os.Stat(p); err == nil {
			tf.Paths[r] = p
		}
	}
	return tf
}

// DiscoverTopics groups <topic>_QP.pdf, <topic>_MS.pdf and <topic>_CP.pdf files
// in dir by topic. Topics are sorted by name; incomplete topics are included
// so the caller can report them.
func DiscoverTopics(dir string) ([]TopicFiles, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	byTopic := make(map[string]TopicFiles)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		topic, role, ok := ParseFileName(e.Name())
		if !ok {
			continue
		}
		tf, seen := byTopic[topic]
		if !seen {
			tf = TopicFiles{Topic: topic, Paths: map[model.Role]string{}}
		}
		tf.Paths[role] = filepath.Join(dir, e.Name())
		byTopic[topic] = tf
	}

	topics := make([]TopicFiles, 0, len(byTopic))
	for _, tf := range byTopic {
		topics = append(topics, tf)
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Topic < topics[j].Topic })
	return topics, nil
}

// ParseFileName splits "<topic>_<ROLE>.pdf" into its topic and role.
// The extension and role suffix are matched case-insensitively.
func ParseFileName(name string) (topic string, role model.Role, ok bool) {
	ext := filepath.Ext(name)
	if !strings.EqualFold(ext, ".pdf") {
		return "", "", false
	}
	stem := strings.TrimSuffix(name, ext)
	i := strings.LastIndex(stem, "_")
	if i <= 0 {
		return "", "", false
	}
	suffix := model.Role(strings.ToUpper(stem[i+1:]))
	for _, r := range model.Roles {
		if suffix == r {
			return stem[:i], r, true
		}
	}
	return "", "", false
}
