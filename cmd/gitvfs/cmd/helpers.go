package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/manifoldco/promptui"
	"github.com/treeverse/gitvfs/pkg/gitadapter"
	"golang.org/x/term"
)

var (
	isTerminal       = true
	noColorRequested = false

	cmdErr io.Writer = os.Stderr
)

const (
	GitVFSInteractive        = "GITVFS_INTERACTIVE"
	GitVFSInteractiveDisable = "no"
	DeathMessage             = "{{.Error|red}}\nError executing command.\n"
	DeathMessageWithFields   = "{{.Message|red}}\n{{.Status}}\n"
)

//nolint:gochecknoinits
func init() {
	// disable colors if we're not attached to interactive TTY
	if !term.IsTerminal(int(os.Stdout.Fd())) || os.Getenv(GitVFSInteractive) == GitVFSInteractiveDisable {
		DisableColors()
	}
}

func DisableColors() {
	text.DisableColors()
	isTerminal = false
}

type Table struct {
	Headers []interface{}
	Rows    [][]interface{}
}

func shortSha(sha string) string {
	if len(sha) > 8 && gitadapter.IsCommitSha(sha) {
		return sha[:8]
	}
	return sha
}

func WriteTo(tpl string, data interface{}, w io.Writer) {
	templ := template.New("output")
	templ.Funcs(template.FuncMap{
		"red": func(arg interface{}) string {
			return text.FgHiRed.Sprint(arg)
		},
		"yellow": func(arg interface{}) string {
			return text.FgHiYellow.Sprint(arg)
		},
		"green": func(arg interface{}) string {
			return text.FgHiGreen.Sprint(arg)
		},
		"blue": func(arg interface{}) string {
			return text.FgHiBlue.Sprint(arg)
		},
		"bold": func(arg interface{}) string {
			return text.Bold.Sprint(arg)
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.Local().Format(time.RFC1123)
		},
		"short": shortSha,
		"json": func(v interface{}) string {
			encoded, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				panic(fmt.Sprintf("failed to encode JSON: %s", err.Error()))
			}
			return string(encoded)
		},
		"join": func(sep string, args []string) string {
			return strings.Join(args, sep)
		},
		"human_bytes": func(b int64) string {
			var unit int64 = 1000
			if b < unit {
				return fmt.Sprintf("%d B", b)
			}
			div, exp := unit, 0
			for n := b / unit; n >= unit; n /= unit {
				div *= unit
				exp++
			}
			return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "kMGTPE"[exp])
		},
		"table": func(tab *Table) string {
			if isTerminal {
				buf := new(bytes.Buffer)
				t := table.NewWriter()
				t.SetOutputMirror(buf)
				t.AppendHeader(tab.Headers)
				for _, row := range tab.Rows {
					t.AppendRow(row)
				}
				t.SetStyle(table.StyleLight)
				t.Render()
				return buf.String()
			}
			var b strings.Builder
			for _, row := range tab.Rows {
				for ic, cell := range row {
					b.WriteString(fmt.Sprint(cell))
					if ic < len(row)-1 {
						b.WriteString("\t")
					}
				}
				b.WriteString("\n")
			}
			return b.String()
		},
	})
	t := template.Must(templ.Parse(tpl))
	err := t.Execute(w, data)
	if err != nil {
		panic(err)
	}
}

func Write(tpl string, data interface{}) {
	WriteTo(tpl, data, os.Stdout)
}

func PrintTable(rows [][]interface{}, headers []interface{}) {
	Write("{{.|table}}", &Table{Headers: headers, Rows: rows})
}

func Die(err string, code int) {
	WriteTo(DeathMessage, struct{ Error string }{err}, os.Stderr)
	os.Exit(code)
}

func DieFmt(msg string, args ...interface{}) {
	Die(fmt.Sprintf(msg, args...), 1)
}

// DieErr prints err and exits.  Provider errors report the HTTP status with the message.
func DieErr(err error) {
	var (
		retryErr *gitadapter.RetryableError
		fatalErr *gitadapter.NonRetryableError
	)
	switch {
	case errors.As(err, &retryErr):
		WriteTo(DeathMessageWithFields, struct{ Message, Status string }{
			Message: err.Error(),
			Status:  fmt.Sprintf("remote unavailable after %d attempts (HTTP %d), try again later", retryErr.Attempts, retryErr.StatusCode),
		}, os.Stderr)
	case errors.As(err, &fatalErr):
		WriteTo(DeathMessageWithFields, struct{ Message, Status string }{
			Message: err.Error(),
			Status:  fmt.Sprintf("remote rejected the request (HTTP %d)", fatalErr.StatusCode),
		}, os.Stderr)
	default:
		WriteTo(DeathMessage, struct{ Error string }{err.Error()}, os.Stderr)
	}
	os.Exit(1)
}

func Fmt(msg string, args ...interface{}) {
	fmt.Printf(msg, args...)
}

func Warning(message string) {
	_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", text.FgHiYellow.Sprint("WARNING:"), message)
}

// Must returns v, or dies on err.
func Must[T any](v T, err error) T {
	if err != nil {
		DieErr(err)
	}
	return v
}

func confirm(question string) (bool, error) {
	prm := promptui.Prompt{
		Label:     question,
		IsConfirm: true,
	}
	_, err := prm.Run()
	if err != nil {
		return false, err
	}
	return true, nil
}

// mustConfirm asks question on interactive terminals unless yes was given, and dies on a
// negative answer.
func mustConfirm(question string, yes bool) {
	if yes || !isTerminal {
		return
	}
	if ok, err := confirm(question); err != nil || !ok {
		Die("Aborted.", 1)
	}
}
