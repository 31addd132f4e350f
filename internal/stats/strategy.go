package stats

import (
	"context"
	"fmt"

	"github.com/david-shiko/rubik-sub000/internal/store"
)

// Strategy collects the two vote snapshots MatchStats is built from.
type Strategy interface {
	Name() string
	Collect(ctx context.Context, conn store.Conn, st store.Store, userID, withUserID uint64) (mine, with VotesCount, err error)
}

// StrategyByName resolves "v1" or "v2".
func StrategyByName(name string) (Strategy, error) {
	switch name {
	case "v1":
		return V1{}, nil
	case "v2", "":
		return V2{}, nil
	default:
		return nil, fmt.Errorf("unknown stats strategy %q", name)
	}
}

// V1 snapshots the votes of userID alone and queries the overlap with the
// live votes of withUserID.
type V1 struct{}

func (V1) Name() string { return "v1" }

func (V1) Collect(ctx context.Context, conn store.Conn, st store.Store, userID, withUserID uint64) (mine, with VotesCount, err error) {
	if err = st.Execute(ctx, conn, store.StatsV1Drop, userID); err != nil {
		return
	}
	if err = st.Execute(ctx, conn, store.StatsV1Create, userID); err != nil {
		return
	}
	if _, err = st.Read(ctx, conn, store.StatsV1ReadMine, &mine, userID); err != nil {
		return
	}
	_, err = st.Read(ctx, conn, store.StatsV1ReadWith, &with, userID, withUserID)
	return
}

// V2 snapshots the votes of both users together and reads each figure from
// that joint snapshot.
type V2 struct{}

func (V2) Name() string { return "v2" }

func (V2) Collect(ctx context.Context, conn store.Conn, st store.Store, userID, withUserID uint64) (mine, with VotesCount, err error) {
	if err = st.Execute(ctx, conn, store.StatsV2Drop, userID, withUserID); err != nil {
		return
	}
	if err = st.Execute(ctx, conn, store.StatsV2Create, userID, withUserID, userID, withUserID); err != nil {
		return
	}
	if _, err = st.Read(ctx, conn, store.StatsV2ReadSide, &mine, userID, withUserID, userID); err != nil {
		return
	}
	_, err = st.Read(ctx, conn, store.StatsV2ReadCommon, &with, userID, withUserID)
	return
}
