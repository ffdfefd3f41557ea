// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"fmt"

	"github.com/jeranaias/babypolicy-chat/internal/gateway"
)

// WelcomeText is the seed turn of every new conversation.
const WelcomeText = "안녕하세요! 👶 육아 정책에 대해 궁금한 점을 물어보세요. 지역, 소득, 가족 구성 등에 맞는 정책을 찾아드릴게요!"

// ActionSuccessFallback is shown when an action succeeds without a
// confirmation text.
const ActionSuccessFallback = "요청하신 작업을 완료했습니다."

const (
	sendErrorTemplate    = "죄송합니다. 오류가 발생했습니다: %s"
	actionErrorTemplate  = "작업 실행 중 오류가 발생했습니다: %s"
	refreshErrorTemplate = "대화 목록을 불러오지 못했습니다: %s"
	selectErrorTemplate  = "대화를 불러오지 못했습니다: %s"
	deleteErrorTemplate  = "대화를 삭제하지 못했습니다: %s"

	unknownError = "알 수 없는 오류"
)

// SendErrorText is the assistant turn appended when a send fails.
func SendErrorText(err error) string {
	return fmt.Sprintf(sendErrorTemplate, describe(err))
}

// ActionErrorText is the assistant turn appended when an action fails.
func ActionErrorText(err error) string {
	return fmt.Sprintf(actionErrorTemplate, describe(err))
}

func describe(err error) string {
	if desc := gateway.Describe(err); desc != "" {
		return desc
	}
	return unknownError
}
