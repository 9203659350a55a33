package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tuannm99/novaschema/internal/catalog"
	"github.com/tuannm99/novaschema/internal/record"
)

var (
	ErrUnknownCommand = errors.New("shell: unknown command")
	ErrUsage          = errors.New("shell: wrong number of arguments")
	ErrNoCatalogDir   = errors.New("shell: no catalog dir configured")
)

// Shell runs inspection commands against a catalog.
type Shell struct {
	Catalog *catalog.Catalog
	Dir     string
	Format  catalog.Format
}

type command struct {
	args  int
	usage string
	run   func(s *Shell, ctx context.Context, w io.Writer, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"tables": {0, "tables", (*Shell).tables},
		"desc":   {1, "desc <table>", (*Shell).desc},
		"size":   {1, "size <table>", (*Shell).size},
		"hash":   {1, "hash <table>", (*Shell).hash},
		"index":  {2, "index <table> <field>", (*Shell).index},
		"field":  {2, "field <table> <i>", (*Shell).field},
		"merge":  {2, "merge <table> <table>", (*Shell).merge},
		"compat": {2, "compat <table> <table>", (*Shell).compat},
		"shape":  {1, "shape <table>", (*Shell).shape},
		"save":   {0, "save", (*Shell).save},
		"help":   {0, "help", (*Shell).help},
	}
}

// Exec runs one command line. Empty lines are ignored.
func (s *Shell) Exec(ctx context.Context, w io.Writer, line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}
	name, args := strings.ToLower(parts[0]), parts[1:]

	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, parts[0])
	}
	if len(args) != cmd.args {
		return fmt.Errorf("%w: usage: %s", ErrUsage, cmd.usage)
	}
	return cmd.run(s, ctx, w, args)
}

func (s *Shell) tables(_ context.Context, w io.Writer, _ []string) error {
	for _, name := range s.Catalog.TableNames() {
		desc, err := s.Catalog.Schema(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d fields\t%d bytes\n", name, desc.NumFields(), desc.Size())
	}
	return nil
}

func (s *Shell) desc(_ context.Context, w io.Writer, args []string) error {
	meta, err := s.Catalog.Table(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "table %s (id %s)\n", meta.Name, meta.ID)
	for i, f := range meta.Schema.Fields() {
		off, _ := meta.Schema.FieldOffset(i)
		pk := ""
		if meta.PrimaryKey != "" && f.Name == meta.PrimaryKey {
			pk = "\tPRIMARY KEY"
		}
		fmt.Fprintf(w, "  %d\t%s\t%s\t@%d+%d%s\n", i, f.Name, f.Type, off, f.Type.Len(), pk)
	}
	return nil
}

func (s *Shell) size(_ context.Context, w io.Writer, args []string) error {
	desc, err := s.Catalog.Schema(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(w, desc.Size())
	return nil
}

func (s *Shell) hash(_ context.Context, w io.Writer, args []string) error {
	desc, err := s.Catalog.Schema(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%016x\n", desc.Hash())
	return nil
}

func (s *Shell) index(_ context.Context, w io.Writer, args []string) error {
	desc, err := s.Catalog.Schema(args[0])
	if err != nil {
		return err
	}
	i, err := desc.IndexOf(args[1])
	if err != nil {
		return err
	}
	fmt.Fprintln(w, i)
	return nil
}

func (s *Shell) field(_ context.Context, w io.Writer, args []string) error {
	desc, err := s.Catalog.Schema(args[0])
	if err != nil {
		return err
	}
	i, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w: field index %q", ErrUsage, args[1])
	}
	name, err := desc.FieldName(i)
	if err != nil {
		return err
	}
	typ, _ := desc.FieldType(i)
	fmt.Fprintf(w, "%s(%s)\n", typ, name)
	return nil
}

func (s *Shell) merge(_ context.Context, w io.Writer, args []string) error {
	a, err := s.Catalog.Schema(args[0])
	if err != nil {
		return err
	}
	b, err := s.Catalog.Schema(args[1])
	if err != nil {
		return err
	}
	m := record.Merge(a, b)
	fmt.Fprintf(w, "%s\n%d fields, %d bytes\n", m, m.NumFields(), m.Size())
	return nil
}

func (s *Shell) compat(_ context.Context, w io.Writer, args []string) error {
	ok, err := s.Catalog.Compatible(args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintln(w, ok)
	return nil
}

func (s *Shell) shape(_ context.Context, w io.Writer, args []string) error {
	desc, err := s.Catalog.Schema(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(w, strings.Join(s.Catalog.FindByShape(desc), " "))
	return nil
}

func (s *Shell) save(ctx context.Context, w io.Writer, _ []string) error {
	if s.Dir == "" {
		return ErrNoCatalogDir
	}
	if err := s.Catalog.Save(ctx, s.Dir, s.Format); err != nil {
		return err
	}
	fmt.Fprintf(w, "saved %d tables to %s\n", s.Catalog.Len(), s.Dir)
	return nil
}

func (s *Shell) help(_ context.Context, w io.Writer, _ []string) error {
	for _, name := range []string{"tables", "desc", "size", "hash", "index", "field", "merge", "compat", "shape", "save", "help"} {
		fmt.Fprintln(w, "  "+commands[name].usage)
	}
	fmt.Fprintln(w, "  exit")
	return nil
}
