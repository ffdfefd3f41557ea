// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/peterh/liner"

	"github.com/jeranaias/babypolicy-chat/internal/config"
	"github.com/jeranaias/babypolicy-chat/internal/export"
	"github.com/jeranaias/babypolicy-chat/internal/model"
	"github.com/jeranaias/babypolicy-chat/internal/session"
	"github.com/jeranaias/babypolicy-chat/internal/util"
)

const replHelp = `명령:
  /new         새 대화 시작
  /list        대화 목록 보기
  /open N      N번 대화 열기
  /delete N    N번 대화 삭제
  /run [N]     N번째 제안 작업 실행 (생략하면 마지막 제안)
  /export [md|json]  현재 대화를 파일로 저장
  /help        도움말
  /quit        종료
그 밖의 입력은 질문으로 보냅니다.`

// =============================================================================
// LINE INPUT
// =============================================================================

// LineReader reads one line of input after showing a prompt.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// linerReader provides history and line editing through liner. History is
// kept in the config directory across runs.
type linerReader struct {
	line        *liner.State
	historyFile string
}

func newLinerReader() *linerReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	r := &linerReader{line: line, historyFile: filepath.Join(dir, "chat_history")}
	if f, err := os.Open(r.historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
	return r
}

func (r *linerReader) Prompt(prompt string) (string, error) {
	return r.line.Prompt(prompt)
}

func (r *linerReader) AppendHistory(item string) {
	r.line.AppendHistory(item)
}

// Close saves history and restores the terminal.
func (r *linerReader) Close() {
	if err := os.MkdirAll(filepath.Dir(r.historyFile), 0700); err == nil {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			r.line.WriteHistory(f)
			f.Close()
		}
	}
	r.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// REPL is the line-mode chat. It drives the same session controller as the
// full-screen UI, synchronously, and prints the log as it grows.
type REPL struct {
	ctrl *session.Controller
	in   LineReader
	out  io.Writer

	// ExportDir is where /export writes (default: current directory)
	ExportDir string

	// shown counts log entries already printed for generation
	shown      int
	generation uint64
}

// NewREPL creates a line-mode chat over ctrl.
func NewREPL(ctrl *session.Controller, in LineReader, out io.Writer) *REPL {
	return &REPL{
		ctrl:       ctrl,
		in:         in,
		out:        out,
		generation: ctrl.View().Generation,
		ExportDir:  ".",
	}
}

// Run reads lines until /quit, end of input or ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	fmt.Fprintln(r.out, TitleStyle.Render("👶 육아 정책 도우미"))
	fmt.Fprintln(r.out, RenderSeparator(40))
	fmt.Fprintln(r.out, DimStyle.Render("/help 로 명령을 볼 수 있어요."))
	fmt.Fprintln(r.out)

	r.drive(r.ctrl.Init())
	r.flush(true)

	for ctx.Err() == nil {
		line, err := r.in.Prompt("> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.in.AppendHistory(line)

		if quit := r.Handle(line); quit {
			return nil
		}
	}
	return nil
}

// Handle processes one line of input and reports whether the user asked to
// quit.
func (r *REPL) Handle(line string) bool {
	if !strings.HasPrefix(line, "/") {
		if cmd, ok := r.ctrl.Submit(line); ok {
			r.drive(cmd)
			r.flush(false)
		}
		return false
	}

	fields := strings.Fields(line)
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch fields[0] {
	case "/quit", "/exit", "/q":
		return true
	case "/help", "/?":
		fmt.Fprintln(r.out, replHelp)
	case "/new":
		r.drive(r.ctrl.StartNew())
		r.flush(true)
	case "/list":
		r.drive(r.ctrl.Refresh())
		r.printList()
	case "/open":
		if c, ok := r.pick(arg); ok {
			r.drive(r.ctrl.Select(c.ID))
			r.flush(true)
		}
	case "/delete":
		if c, ok := r.pick(arg); ok {
			r.deleteConversation(c)
		}
	case "/run":
		r.runAction(arg)
	case "/export":
		r.exportTranscript(arg)
	default:
		fmt.Fprintln(r.out, WarningStyle.Render("알 수 없는 명령입니다. /help 를 입력하세요."))
	}
	return false
}

// =============================================================================
// COMMANDS
// =============================================================================

func (r *REPL) deleteConversation(c model.Conversation) {
	r.ctrl.RequestDelete(c.ID)
	prompt := fmt.Sprintf("「%s」 대화를 삭제할까요? 되돌릴 수 없습니다. (y/N) ", util.TruncateWidth(c.DisplayTitle(), 40))
	if !r.confirm(prompt) {
		r.ctrl.CancelDelete()
		return
	}

	r.drive(r.ctrl.ConfirmDelete())
	if _, still := r.ctrl.Directory().Get(c.ID); !still {
		fmt.Fprintln(r.out, SuccessStyle.Render("삭제했습니다."))
	}
	r.flush(true)
}

// runAction runs the proposal numbered arg, or the newest one when arg is
// empty.
func (r *REPL) runAction(arg string) {
	proposals := r.proposals()
	if len(proposals) == 0 {
		fmt.Fprintln(r.out, WarningStyle.Render("실행할 작업이 없습니다."))
		return
	}
	msg := proposals[len(proposals)-1]
	if arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > len(proposals) {
			fmt.Fprintln(r.out, WarningStyle.Render(fmt.Sprintf("번호를 확인해 주세요 (1-%d).", len(proposals))))
			return
		}
		msg = proposals[n-1]
	}
	if !r.ctrl.RequestAction(msg.ID) {
		fmt.Fprintln(r.out, WarningStyle.Render("작업이 이미 실행 중입니다."))
		return
	}

	fmt.Fprintln(r.out, ActionStyle.Render("▶ "+msg.Action.Label()))
	for _, k := range msg.Action.ArgumentKeys() {
		fmt.Fprintln(r.out, DimStyle.Render(fmt.Sprintf("  %s: %v", k, msg.Action.Arguments[k])))
	}
	if !r.confirm("실행할까요? (y/N) ") {
		r.ctrl.CancelAction()
		return
	}

	r.drive(r.ctrl.ConfirmAction())
	r.flush(true)
}

func (r *REPL) exportTranscript(format string) {
	exp, err := export.ForFormat(format, nil)
	if err != nil {
		fmt.Fprintln(r.out, WarningStyle.Render(err.Error()))
		return
	}

	msgs := r.ctrl.Messages()
	title := ""
	if c, ok := r.ctrl.Directory().Get(r.ctrl.ActiveConversationID()); ok {
		title = c.Title
	}
	if title == "" {
		for _, m := range msgs {
			if m.Role == model.RoleUser {
				title = model.TitleFromMessage(m.Content)
				break
			}
		}
	}

	t := export.NewTranscript(r.ctrl.ActiveConversationID(), title, msgs)
	path, err := export.ToFile(t, exp, &export.Options{
		OutputDir:         r.ExportDir,
		IncludeSources:    true,
		IncludeTimestamps: true,
	})
	if err != nil {
		fmt.Fprintln(r.out, ErrorStyle.Render(err.Error()))
		return
	}
	fmt.Fprintln(r.out, SuccessStyle.Render("저장했습니다: ")+path)
}

// pick resolves a 1-based index into the conversation list.
func (r *REPL) pick(arg string) (model.Conversation, bool) {
	convs := r.ctrl.Conversations()
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(convs) {
		if len(convs) == 0 {
			fmt.Fprintln(r.out, WarningStyle.Render("대화가 없습니다. /list 로 목록을 불러오세요."))
		} else {
			fmt.Fprintln(r.out, WarningStyle.Render(fmt.Sprintf("번호를 확인해 주세요 (1-%d).", len(convs))))
		}
		return model.Conversation{}, false
	}
	return convs[n-1], true
}

func (r *REPL) confirm(prompt string) bool {
	answer, err := r.in.Prompt(prompt)
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "예", "네":
		return true
	}
	return false
}

// =============================================================================
// OUTPUT
// =============================================================================

// drive runs cmd to completion and prints any directory notice it raised.
func (r *REPL) drive(cmd tea.Cmd) {
	session.Run(r.ctrl, cmd)
	r.printNotice()
}

// flush prints log entries not yet shown. A replaced log is printed from
// the start. User turns are skipped when echoUser is false since the user
// just typed them.
func (r *REPL) flush(echoUser bool) {
	msgs := r.ctrl.Messages()
	if gen := r.ctrl.View().Generation; gen != r.generation {
		r.generation = gen
		r.shown = 0
	}
	if r.shown > len(msgs) {
		r.shown = len(msgs)
	}

	for _, msg := range msgs[r.shown:] {
		if msg.Role == model.RoleUser && !echoUser {
			continue
		}
		r.printMessage(msg)
	}
	r.shown = len(msgs)
}

func (r *REPL) printMessage(msg model.Message) {
	label := AssistantStyle.Render(msg.Role.DisplayName())
	if msg.Role == model.RoleUser {
		label = UserStyle.Render(msg.Role.DisplayName())
	}
	fmt.Fprintln(r.out, label)
	fmt.Fprintln(r.out, msg.Content)

	if sources := msg.TopSources(2); len(sources) > 0 {
		titles := make([]string, 0, len(sources))
		for _, s := range sources {
			titles = append(titles, s.DocID)
		}
		fmt.Fprintln(r.out, DimStyle.Render("📋 참고 정책: "+strings.Join(titles, ", ")))
	}
	if msg.HasAction() {
		hint := fmt.Sprintf("(/run %d)", r.proposalNumber(msg.ID))
		fmt.Fprintln(r.out, ActionStyle.Render("▶ "+msg.Action.Label())+" "+DimStyle.Render(hint))
	}
	fmt.Fprintln(r.out)
}

func (r *REPL) printList() {
	convs := r.ctrl.Conversations()
	if len(convs) == 0 {
		if r.ctrl.Directory().Loaded() {
			fmt.Fprintln(r.out, DimStyle.Render("대화가 없습니다."))
		}
		return
	}

	active := r.ctrl.ActiveConversationID()
	for i, c := range convs {
		marker := " "
		if c.ID == active {
			marker = "●"
		}
		fmt.Fprintf(r.out, "%s %2d. %s  %s\n", marker, i+1,
			util.PadWidth(util.TruncateWidth(c.DisplayTitle(), 40), 40),
			DimStyle.Render(formatActivity(c)))
	}
}

func (r *REPL) printNotice() {
	n := r.ctrl.Notice()
	if n == nil {
		return
	}
	fmt.Fprintln(r.out, WarningStyle.Render("⚠ "+n.Text()))
	r.ctrl.DismissNotice()
}

// proposals returns the messages proposing an action, oldest first. /run
// numbers follow this order.
func (r *REPL) proposals() []model.Message {
	var out []model.Message
	for _, m := range r.ctrl.Messages() {
		if m.HasAction() {
			out = append(out, m)
		}
	}
	return out
}

func (r *REPL) proposalNumber(id string) int {
	for i, m := range r.proposals() {
		if m.ID == id {
			return i + 1
		}
	}
	return 0
}

func formatActivity(c model.Conversation) string {
	at := c.ActivityAt()
	if at.IsZero() {
		return ""
	}
	return at.Local().Format("01/02 15:04")
}

// sortedKeys returns the keys of m in order.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
