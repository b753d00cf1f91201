package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/relevex/internal/db"
)

// XAdd appends e to its stream with an auto-generated id, trimming the
// stream to roughly MaxLen entries when set.
func (s *Store) XAdd(ctx context.Context, e db.StreamEntry) (string, error) {
	if len(e.Fields) == 0 {
		return "", &db.Error{Op: db.OpXAdd, Err: fmt.Errorf("no fields")}
	}

	var cmd rueidis.Completed
	if e.MaxLen > 0 {
		fv := s.b().Xadd().Key(e.Stream).
			Maxlen().Almost().Threshold(strconv.FormatInt(e.MaxLen, 10)).
			Id("*").FieldValue()
		for _, f := range e.Fields {
			fv = fv.FieldValue(f[0], f[1])
		}
		cmd = fv.Build()
	} else {
		fv := s.b().Xadd().Key(e.Stream).Id("*").FieldValue()
		for _, f := range e.Fields {
			fv = fv.FieldValue(f[0], f[1])
		}
		cmd = fv.Build()
	}

	id, err := s.do(ctx, cmd).ToString()
	if err != nil {
		return "", &db.Error{Op: db.OpXAdd, Err: err}
	}
	return id, nil
}
