package disasm

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/retroenv/gbdisasm/internal/address"
	"github.com/retroenv/gbdisasm/internal/command"
	"github.com/retroenv/gbdisasm/internal/comment"
	"github.com/retroenv/gbdisasm/internal/data"
	"github.com/retroenv/gbdisasm/internal/xref"
)

// Save writes the canonical mutation commands of the database as a
// project file, one command per line.
func (dis *Disassembler) Save(w io.Writer) error {
	buf := bufio.NewWriter(w)
	for _, cmd := range dis.SaveItems() {
		if _, err := buf.WriteString(cmd.String() + "\n"); err != nil {
			return fmt.Errorf("writing project: %w", err)
		}
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("writing project: %w", err)
	}
	return nil
}

// Load replays a project file against the database. Blank lines and
// lines starting with # are skipped.
func (dis *Disassembler) Load(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := dis.Execute(command.Parse(line)); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading project: %w", err)
	}
	return nil
}

// Execute dispatches one canonical mutation command to its manager.
func (dis *Disassembler) Execute(cmd command.Command) error {
	if len(cmd) == 0 {
		return nil
	}

	var err error
	switch cmd[0] {
	case "data":
		err = dis.executeData(cmd)
	case "label":
		err = dis.executeLabel(cmd)
	case "section":
		err = dis.executeSection(cmd)
	case "comment":
		err = dis.executeComment(cmd)
	case "context":
		err = dis.executeContext(cmd)
	case "xref":
		err = dis.executeXRef(cmd)
	default:
		err = fmt.Errorf("unknown command %q", cmd[0])
	}
	if err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	return nil
}

func parseAddress(tokens command.Command, pos int) (address.Address, error) {
	if pos >= len(tokens) {
		return address.Address{}, fmt.Errorf("missing address argument")
	}
	return address.Parse(tokens[pos])
}

func parseInt(tokens command.Command, pos int) (int, error) {
	if pos >= len(tokens) {
		return 0, fmt.Errorf("missing numeric argument")
	}
	v, err := strconv.Atoi(tokens[pos])
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", tokens[pos], err)
	}
	return v, nil
}

func (dis *Disassembler) executeData(cmd command.Command) error {
	if len(cmd) < 2 {
		return fmt.Errorf("incomplete data command")
	}

	if cmd[1] == "delete" {
		addr, err := parseAddress(cmd, 2)
		if err != nil {
			return err
		}
		return dis.DeleteData(addr)
	}
	if cmd[1] != "create" || len(cmd) < 3 {
		return fmt.Errorf("unknown data command %q", cmd[1])
	}

	kind := cmd[2]
	if kind == "header" {
		return dis.Data.CreateHeader()
	}

	addr, err := parseAddress(cmd, 3)
	if err != nil {
		return err
	}

	switch kind {
	case "basic":
		size, err := parseInt(cmd, 4)
		if err != nil {
			return err
		}
		return dis.Data.Create(addr, size)

	case "table":
		rows, err := parseInt(cmd, 4)
		if err != nil {
			return err
		}
		if len(cmd) < 6 {
			return fmt.Errorf("missing table row layout")
		}
		layout, err := data.ParseLayout(cmd[5])
		if err != nil {
			return err
		}
		return dis.Data.CreateTable(addr, rows, layout)

	case "palette":
		rows, err := parseInt(cmd, 4)
		if err != nil {
			return err
		}
		return dis.Data.CreatePalette(addr, rows)

	case "rle":
		return dis.Data.CreateRLE(addr)

	case "jumptable":
		rows := 0
		if len(cmd) > 4 {
			var err error
			if rows, err = parseInt(cmd, 4); err != nil {
				return err
			}
		}
		return dis.Data.CreateJumptable(addr, rows)

	case "empty":
		size := 0
		if len(cmd) > 4 {
			var err error
			if size, err = parseInt(cmd, 4); err != nil {
				return err
			}
		}
		return dis.Data.CreateEmpty(addr, size)

	default:
		return fmt.Errorf("unknown data kind %q", kind)
	}
}

func (dis *Disassembler) executeLabel(cmd command.Command) error {
	if len(cmd) < 2 {
		return fmt.Errorf("incomplete label command")
	}

	switch cmd[1] {
	case "create":
		addr, err := parseAddress(cmd, 2)
		if err != nil {
			return err
		}
		if len(cmd) < 4 {
			return fmt.Errorf("missing label name")
		}
		return dis.Labels.Create(addr, cmd[3])

	case "auto":
		addr, err := parseAddress(cmd, 2)
		if err != nil {
			return err
		}
		return dis.Labels.AutoCreate(addr, len(cmd) > 3 && cmd[3] == "local")

	case "rename":
		if len(cmd) < 4 {
			return fmt.Errorf("missing label names")
		}
		return dis.Labels.Rename(cmd[2], cmd[3])

	case "delete":
		if len(cmd) < 3 {
			return fmt.Errorf("missing label name")
		}
		return dis.Labels.Delete(cmd[2])

	default:
		return fmt.Errorf("unknown label command %q", cmd[1])
	}
}

func (dis *Disassembler) executeSection(cmd command.Command) error {
	if len(cmd) < 2 {
		return fmt.Errorf("incomplete section command")
	}

	switch cmd[1] {
	case "create":
		addr, err := parseAddress(cmd, 2)
		if err != nil {
			return err
		}
		if len(cmd) < 4 {
			return fmt.Errorf("missing section name")
		}
		return dis.Sections.Create(addr, cmd[3])

	case "delete":
		addr, err := parseAddress(cmd, 2)
		if err != nil {
			return err
		}
		return dis.Sections.Delete(addr)

	default:
		return fmt.Errorf("unknown section command %q", cmd[1])
	}
}

func (dis *Disassembler) executeComment(cmd command.Command) error {
	if len(cmd) < 3 {
		return fmt.Errorf("incomplete comment command")
	}
	addr, err := parseAddress(cmd, 2)
	if err != nil {
		return err
	}

	text := ""
	if len(cmd) > 3 {
		if text, err = comment.Decode(cmd[3]); err != nil {
			return fmt.Errorf("invalid comment text: %w", err)
		}
	}

	switch cmd[1] {
	case "inline":
		dis.Comments.SetInline(addr, text)
	case "append":
		dis.Comments.AppendBlock(addr, text)
	case "clear":
		dis.Comments.Clear(addr)
	default:
		return fmt.Errorf("unknown comment command %q", cmd[1])
	}
	return nil
}

func (dis *Disassembler) executeContext(cmd command.Command) error {
	if len(cmd) < 2 {
		return fmt.Errorf("incomplete context command")
	}

	if cmd[1] == "clear" {
		addr, err := parseAddress(cmd, 2)
		if err != nil {
			return err
		}
		dis.ClearContext(addr)
		return nil
	}
	if cmd[1] != "set" || len(cmd) < 3 {
		return fmt.Errorf("unknown context command %q", cmd[1])
	}

	addr, err := parseAddress(cmd, 3)
	if err != nil {
		return err
	}

	switch cmd[2] {
	case "scalar":
		dis.SetForceScalar(addr)
	case "bank":
		bank, err := parseInt(cmd, 4)
		if err != nil {
			return err
		}
		dis.SetBankOverride(addr, bank)
	default:
		return fmt.Errorf("unknown context setting %q", cmd[2])
	}
	return nil
}

func (dis *Disassembler) executeXRef(cmd command.Command) error {
	if len(cmd) < 2 {
		return fmt.Errorf("incomplete xref command")
	}

	switch cmd[1] {
	case "declare":
		if len(cmd) < 5 {
			return fmt.Errorf("incomplete xref declaration")
		}
		kind, ok := xref.KindByName(cmd[2])
		if !ok {
			return fmt.Errorf("unknown xref kind %q", cmd[2])
		}
		from, err := parseAddress(cmd, 3)
		if err != nil {
			return err
		}
		to, err := parseAddress(cmd, 4)
		if err != nil {
			return err
		}
		dis.XRefs.Declare(kind, from, to)
		return nil

	case "clear":
		addr, err := parseAddress(cmd, 2)
		if err != nil {
			return err
		}
		dis.XRefs.Clear(addr)
		return nil

	case "index":
		bank, err := parseInt(cmd, 2)
		if err != nil {
			return err
		}
		dis.XRefs.Index(bank)
		return nil

	default:
		return fmt.Errorf("unknown xref command %q", cmd[1])
	}
}
