package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/matzehuels/netdiagram/pkg/errors"
	"github.com/matzehuels/netdiagram/pkg/graph"
)

// Export converts a graph back into its document form. Declared queues are
// only written for rabbitmq brokers; other brokers discover theirs.
func Export(g *graph.Graph) *Document {
	doc := &Document{Categories: g.Categories()}
	for _, s := range g.Services() {
		out := Service{
			Name:        s.Name,
			FullName:    s.FullName,
			Category:    s.Category,
			Module:      s.Module,
			Language:    s.Language,
			Description: s.Description,
			Owners:      s.Owners,
			Broker:      string(s.Broker),
			Product:     s.Product,
			Unavailable: s.Unavailable,
		}
		if s.Status != graph.StatusUnknown {
			out.Status = string(s.Status)
		}
		if s.IsRabbitMQ() {
			for _, name := range s.QueueNames() {
				q := Queue{Name: name}
				for _, b := range s.Queues[name].Bindings {
					q.Bindings = append(q.Bindings, Binding{Exchange: b.Exchange, RoutingKey: b.RoutingKey})
				}
				out.Queues = append(out.Queues, q)
			}
		}
		for _, c := range s.Connectors {
			out.ConnectTo = append(out.ConnectTo, fromConnector(c))
		}
		doc.Services = append(doc.Services, out)
	}
	return doc
}

func fromConnector(c *graph.Connector) ConnectTo {
	out := ConnectTo{
		Name:        c.Dest,
		Direction:   string(c.Direction),
		Transport:   c.Transport,
		Protocol:    c.Protocol,
		Description: c.Description,
	}
	if !c.HasChannels() {
		return out
	}
	channels := make([]Channel, len(c.Channels))
	for i, ch := range c.Channels {
		channels[i] = Channel(ch)
	}
	switch c.Kind {
	case graph.KindTopic:
		out.Topics = channels
	case graph.KindQueue:
		out.Queues = channels
	case graph.KindExchange:
		out.Exchanges = channels
	case graph.KindCeleryTask:
		out.CeleryTasks = channels
	}
	return out
}

// WriteJSON encodes g as an indented JSON document.
// The output can be read back with [Read] using [FormatJSON].
func WriteJSON(g *graph.Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Export(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteFileAtomic writes data to a temporary file next to path and renames
// it into place. Parent directories are created as needed.
func WriteFileAtomic(path string, data []byte) error {
	return WriteFilesAtomic([]File{{Path: path, Data: data}})
}

// File is one output of [WriteFilesAtomic].
type File struct {
	Path string
	Data []byte
}

// WriteFilesAtomic writes every file or none. All contents are staged in
// temporary files first; they are renamed into place only once every stage
// succeeded. A failing rename restores the files already replaced and
// removes the directories this call created.
func WriteFilesAtomic(files []File) (err error) {
	var b batch
	defer func() {
		if err != nil {
			b.rollback()
		}
	}()
	for _, f := range files {
		if err := b.stage(f); err != nil {
			return err
		}
	}
	for i := range b.staged {
		if err := b.commit(i); err != nil {
			return err
		}
	}
	b.cleanup()
	return nil
}

type staged struct {
	path, tmp string
	backup    string // previous content moved aside, "" if there was none
	done      bool
}

type batch struct {
	staged  []*staged
	created []string // directories made by this batch, outermost first
}

func (b *batch) stage(f File) error {
	dir := filepath.Dir(f.Path)
	if err := b.mkdirAll(dir); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.Path)+".*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "create temp file in %s", dir)
	}
	st := &staged{path: f.Path, tmp: tmp.Name()}
	b.staged = append(b.staged, st)

	if _, err := tmp.Write(f.Data); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", f.Path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "close %s", f.Path)
	}
	if err := os.Chmod(st.tmp, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "chmod %s", f.Path)
	}
	return nil
}

// mkdirAll records the missing ancestors of dir before creating them.
func (b *batch) mkdirAll(dir string) error {
	var missing []string
	for d := dir; ; d = filepath.Dir(d) {
		if _, err := os.Stat(d); err == nil || filepath.Dir(d) == d {
			break
		}
		missing = append(missing, d)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "create %s", dir)
	}
	for i := len(missing) - 1; i >= 0; i-- {
		b.created = append(b.created, missing[i])
	}
	return nil
}

func (b *batch) commit(i int) error {
	st := b.staged[i]
	if info, err := os.Lstat(st.path); err == nil {
		if info.IsDir() {
			return errors.New(errors.ErrCodeIO, "rename into %s: is a directory", st.path)
		}
		backup := st.tmp + ".old"
		if err := os.Rename(st.path, backup); err != nil {
			return errors.Wrap(errors.ErrCodeIO, err, "move aside %s", st.path)
		}
		st.backup = backup
	}
	if err := os.Rename(st.tmp, st.path); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "rename into %s", st.path)
	}
	st.done = true
	return nil
}

func (b *batch) rollback() {
	for i := len(b.staged) - 1; i >= 0; i-- {
		st := b.staged[i]
		if st.done {
			_ = os.Remove(st.path)
		} else {
			_ = os.Remove(st.tmp)
		}
		if st.backup != "" {
			_ = os.Rename(st.backup, st.path)
		}
	}
	for i := len(b.created) - 1; i >= 0; i-- {
		_ = os.Remove(b.created[i])
	}
}

func (b *batch) cleanup() {
	for _, st := range b.staged {
		if st.backup != "" {
			_ = os.Remove(st.backup)
		}
	}
}
