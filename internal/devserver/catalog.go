// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

// Policy is one entry of the built-in policy catalog.
type Policy struct {
	ID       string
	Title    string
	Keywords []string
	Summary  string
	Content  string

	// ApplyWithinDays is the application window counted from today, used
	// when proposing a reminder. Zero means no deadline.
	ApplyWithinDays int
}

// DefaultCatalog is a small fixed catalog of national childcare policies.
var DefaultCatalog = []Policy{
	{
		ID:       "parent-benefit",
		Title:    "부모급여",
		Keywords: []string{"부모급여", "영아", "0세", "1세", "현금", "급여"},
		Summary:  "만 0세 아동은 월 100만원, 만 1세 아동은 월 50만원을 지원받을 수 있어요.",
		Content:  "부모급여는 만 0~1세 영아를 양육하는 가정에 지급됩니다. 만 0세(0~11개월) 월 100만원, 만 1세(12~23개월) 월 50만원이며 어린이집 이용 시 보육료 바우처 차감 후 차액을 현금으로 받습니다. 출생일 포함 60일 이내 신청하면 출생월부터 소급 지급됩니다.",

		ApplyWithinDays: 60,
	},
	{
		ID:       "child-allowance",
		Title:    "아동수당",
		Keywords: []string{"아동수당", "8세", "수당", "매월"},
		Summary:  "만 8세 미만 모든 아동에게 월 10만원을 지급해요.",
		Content:  "아동수당은 소득과 관계없이 만 8세 미만 아동에게 월 10만원을 지급합니다. 출생일 포함 60일 이내 신청 시 출생월부터 지급되며 주민센터 또는 복지로에서 신청할 수 있습니다.",

		ApplyWithinDays: 60,
	},
	{
		ID:       "first-meeting-voucher",
		Title:    "첫만남이용권",
		Keywords: []string{"첫만남", "이용권", "바우처", "출생", "출산"},
		Summary:  "출생아 1인당 200만원(둘째 이상 300만원) 바우처를 받을 수 있어요.",
		Content:  "첫만남이용권은 출생 아동에게 국민행복카드 바우처로 첫째 200만원, 둘째 이상 300만원을 지급합니다. 출생일로부터 1년 이내에 사용해야 하며 출생신고 시 함께 신청할 수 있습니다.",

		ApplyWithinDays: 365,
	},
	{
		ID:       "pregnancy-medical",
		Title:    "임신·출산 진료비 지원",
		Keywords: []string{"임신", "진료비", "국민행복카드", "산부인과", "검진", "태아"},
		Summary:  "임신 1회당 100만원(다태아 140만원 이상)의 진료비 바우처를 지원해요.",
		Content:  "임신이 확인된 건강보험 가입자에게 임신·출산 진료비로 단태아 100만원, 다태아 태아당 100만원을 국민행복카드로 지원합니다. 분만 예정일로부터 2년까지 사용할 수 있습니다.",
	},
	{
		ID:       "parental-leave",
		Title:    "육아휴직 급여",
		Keywords: []string{"육아휴직", "휴직", "휴가", "출산휴가", "아빠", "직장"},
		Summary:  "육아휴직 기간 동안 통상임금의 일정 비율을 고용보험에서 지급해요.",
		Content:  "육아휴직 급여는 만 8세 이하 자녀를 둔 근로자가 휴직할 때 고용보험에서 지급합니다. 부모가 동시에 또는 순차로 사용하는 6+6 부모육아휴직제 기간에는 상한액이 단계적으로 올라갑니다. 휴직 시작 1개월 후부터 종료 후 12개월 이내에 신청해야 합니다.",

		ApplyWithinDays: 30,
	},
	{
		ID:       "childcare-fee",
		Title:    "어린이집 보육료 지원",
		Keywords: []string{"어린이집", "보육료", "유치원", "누리과정", "대기"},
		Summary:  "만 0~5세 어린이집 보육료를 정부가 바우처로 지원해요.",
		Content:  "어린이집을 이용하는 만 0~5세 아동은 보육료를 아이행복카드 바우처로 지원받습니다. 입소 대기는 임신육아종합포털 아이사랑에서 신청하며 맞벌이, 다자녀 가구는 입소 우선순위가 부여됩니다.",
	},
}
