package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Slot は成果物の格納位置（表紙・ページN・献辞）を表す識別子です。
// 1つのスロットには同時に1枚の GeneratedAsset しか存在しません。
type Slot string

const (
	SlotCover      Slot = "cover"
	SlotDedication Slot = "dedication"

	pageSlotPrefix = "page-"
)

// PageSlot はページ番号からページ用スロットを作ります。
func PageSlot(number int) Slot {
	return Slot(fmt.Sprintf("%s%d", pageSlotPrefix, number))
}

// ParseSlot は文字列表現からスロットを復元します。
func ParseSlot(s string) (Slot, error) {
	switch Slot(s) {
	case SlotCover, SlotDedication:
		return Slot(s), nil
	}
	if n, ok := Slot(s).PageNumber(); ok && n >= 1 {
		return Slot(s), nil
	}
	return "", fmt.Errorf("unknown slot %q", s)
}

// PageNumber はページ用スロットであればそのページ番号を返します。
func (s Slot) PageNumber() (int, bool) {
	raw, ok := strings.CutPrefix(string(s), pageSlotPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// SlotOrder は伝搬の正準順序（表紙 → ページ1..N → 献辞）を返します。
func SlotOrder(pageCount int) []Slot {
	order := make([]Slot, 0, pageCount+2)
	order = append(order, SlotCover)
	for n := 1; n <= pageCount; n++ {
		order = append(order, PageSlot(n))
	}
	order = append(order, SlotDedication)
	return order
}

// SlotStatus はスロット単位の進行状態です。アセットの有無とは独立に照会できます。
type SlotStatus string

const (
	SlotPending SlotStatus = "pending"
	SlotDone    SlotStatus = "done"
	SlotFailed  SlotStatus = "failed"
)
