package codec

import (
	"fmt"

	"github.com/arloliu/rwf/errs"
	"github.com/arloliu/rwf/format"
)

// Wire values of entry actions. Each keyed container numbers its actions independently.
const (
	mapUpdate uint8 = 1
	mapAdd    uint8 = 2
	mapDelete uint8 = 3

	vectorUpdate uint8 = 1
	vectorSet    uint8 = 2
	vectorClear  uint8 = 3
	vectorInsert uint8 = 4
	vectorDelete uint8 = 5

	filterUpdate uint8 = 1
	filterSet    uint8 = 2
	filterClear  uint8 = 3
)

func unsupportedAction(kind format.DataType, a format.EntryAction) error {
	return fmt.Errorf("%w: %s entries cannot carry action %s", errs.ErrInvalidArgument, kind, a)
}

func invalidAction(kind format.DataType, code uint8) error {
	return fmt.Errorf("%w: %s entry action %d", errs.ErrInvalidData, kind, code)
}

func mapActionCode(a format.EntryAction) (uint8, error) {
	switch a { //nolint: exhaustive
	case format.ActionUpdate:
		return mapUpdate, nil
	case format.ActionAdd:
		return mapAdd, nil
	case format.ActionDelete:
		return mapDelete, nil
	default:
		return 0, unsupportedAction(format.Map, a)
	}
}

func mapAction(code uint8) (format.EntryAction, error) {
	switch code {
	case mapUpdate:
		return format.ActionUpdate, nil
	case mapAdd:
		return format.ActionAdd, nil
	case mapDelete:
		return format.ActionDelete, nil
	default:
		return format.ActionNone, invalidAction(format.Map, code)
	}
}

func vectorActionCode(a format.EntryAction) (uint8, error) {
	switch a { //nolint: exhaustive
	case format.ActionUpdate:
		return vectorUpdate, nil
	case format.ActionSet:
		return vectorSet, nil
	case format.ActionClear:
		return vectorClear, nil
	case format.ActionInsert:
		return vectorInsert, nil
	case format.ActionDelete:
		return vectorDelete, nil
	default:
		return 0, unsupportedAction(format.Vector, a)
	}
}

func vectorAction(code uint8) (format.EntryAction, error) {
	switch code {
	case vectorUpdate:
		return format.ActionUpdate, nil
	case vectorSet:
		return format.ActionSet, nil
	case vectorClear:
		return format.ActionClear, nil
	case vectorInsert:
		return format.ActionInsert, nil
	case vectorDelete:
		return format.ActionDelete, nil
	default:
		return format.ActionNone, invalidAction(format.Vector, code)
	}
}

func filterActionCode(a format.EntryAction) (uint8, error) {
	switch a { //nolint: exhaustive
	case format.ActionUpdate:
		return filterUpdate, nil
	case format.ActionSet:
		return filterSet, nil
	case format.ActionClear:
		return filterClear, nil
	default:
		return 0, unsupportedAction(format.FilterList, a)
	}
}

func filterAction(code uint8) (format.EntryAction, error) {
	switch code {
	case filterUpdate:
		return format.ActionUpdate, nil
	case filterSet:
		return format.ActionSet, nil
	case filterClear:
		return format.ActionClear, nil
	default:
		return format.ActionNone, invalidAction(format.FilterList, code)
	}
}
