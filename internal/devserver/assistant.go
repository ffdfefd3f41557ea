// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/babypolicy-chat/internal/model"
)

const (
	// Sources returned with an answer
	maxAnswerSources = 3

	noMatchAnswer = "질문과 관련된 정책을 찾지 못했어요. 자녀 나이, 지역, 궁금한 지원 종류를 함께 알려주시면 더 정확히 찾아드릴게요."
)

var (
	// Questions asking about timing get a calendar proposal
	timeIntent = regexp.MustCompile(`언제|언제까지|날짜|일정|예약|시기|시한|기한|마감`)

	// Explicit dates such as "2025년 3월 1일"
	explicitDate = regexp.MustCompile(`(\d{4})년\s*(\d{1,2})월\s*(\d{1,2})일`)
)

// Answer is the assistant's reply to one question.
type Answer struct {
	Text    string
	Sources []model.Source
	Action  *model.Action
}

// Assistant answers questions from a keyword-matched policy catalog. It
// stands in for the retrieval pipeline during development.
type Assistant struct {
	catalog []Policy
	now     func() time.Time
}

// NewAssistant creates an assistant over catalog. A nil catalog uses
// DefaultCatalog.
func NewAssistant(catalog []Policy) *Assistant {
	if catalog == nil {
		catalog = DefaultCatalog
	}
	return &Assistant{catalog: catalog, now: time.Now}
}

type scored struct {
	policy Policy
	hits   int
	score  float64
}

// Answer matches question against the catalog.
func (a *Assistant) Answer(question string) Answer {
	q := strings.ToLower(norm.NFC.String(question))
	matches := a.match(q)
	if len(matches) == 0 {
		return Answer{Text: noMatchAnswer, Sources: []model.Source{}}
	}

	var b strings.Builder
	b.WriteString("말씀하신 내용과 관련된 정책을 찾았어요.\n\n")
	sources := make([]model.Source, 0, len(matches))
	for i, m := range matches {
		fmt.Fprintf(&b, "### %d. %s\n%s\n\n", i+1, m.policy.Title, m.policy.Summary)
		sources = append(sources, model.Source{
			DocID:   m.policy.Title,
			ChunkID: m.policy.ID,
			Content: m.policy.Content,
			Score:   m.score,
		})
	}
	b.WriteString("자세한 내용은 아래 참고 정책을 확인해 주세요.")

	return Answer{
		Text:    b.String(),
		Sources: sources,
		Action:  a.propose(question, matches[0].policy),
	}
}

// match returns the best policies for q, strongest first.
func (a *Assistant) match(q string) []scored {
	var out []scored
	for _, p := range a.catalog {
		hits := 0
		for _, kw := range p.Keywords {
			if strings.Contains(q, strings.ToLower(kw)) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		out = append(out, scored{policy: p, hits: hits, score: float64(hits) / float64(len(p.Keywords))})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].hits != out[j].hits {
			return out[i].hits > out[j].hits
		}
		return out[i].score > out[j].score
	})
	if len(out) > maxAnswerSources {
		out = out[:maxAnswerSources]
	}
	return out
}

// propose builds a calendar proposal when the question names a date or
// asks about timing for a policy with a deadline.
func (a *Assistant) propose(question string, top Policy) *model.Action {
	if m := explicitDate.FindStringSubmatch(question); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		date := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.Local)
		if date.Month() == time.Month(mo) && date.Day() == d {
			return calendarAction(top.Title+" 일정", date, "질문에 언급된 날짜")
		}
	}

	if top.ApplyWithinDays > 0 && timeIntent.MatchString(question) {
		deadline := a.now().AddDate(0, 0, top.ApplyWithinDays)
		return calendarAction(top.Title+" 신청 마감", deadline, fmt.Sprintf("정책 관련 일정 제안 (출처: %s)", top.Title))
	}
	return nil
}

func calendarAction(title string, date time.Time, description string) *model.Action {
	return &model.Action{
		Name: model.ActionCreateCalendarEvent,
		Arguments: map[string]any{
			"title":       title,
			"event_date":  date.Format("2006-01-02"),
			"description": description,
		},
	}
}
