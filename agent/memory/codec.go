package memory

import (
	"fmt"

	"github.com/bytedance/sonic"
	contractx "github.com/tanpawarit/meal-planner-agent/agent/contract"
)

func encodeRecord(r contractx.MemoryRecord) (string, error) {
	raw, err := sonic.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode memory record: %w", err)
	}
	return string(raw), nil
}

func decodeRecords(values []string) ([]contractx.MemoryRecord, error) {
	records := make([]contractx.MemoryRecord, 0, len(values))
	for i, v := range values {
		var r contractx.MemoryRecord
		if err := sonic.UnmarshalString(v, &r); err != nil {
			return nil, fmt.Errorf("decode memory record %d: %w", i, err)
		}
		records = append(records, r)
	}
	return records, nil
}
