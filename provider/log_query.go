package provider

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/ethlayer/ethlayer/core/middleware"
)

// DefaultPageSize bounds a log page to this many blocks when the caller
// passes zero.
const DefaultPageSize = 10_000

type queryState uint8

const (
	stateInitial queryState = iota
	stateLoadLogs
	stateConsume
	stateDone
)

var _ middleware.LogIterator = (*LogQuery)(nil)

// LogQuery retrieves historical logs one page of blocks at a time. The head
// block captured at the first Next call bounds the pagination; the sequence
// is finite and terminates once the window passes that head. A query is owned
// by a single caller and restarts from scratch, never mid-stream.
//
// An empty page advances the window immediately; the sequence only ends when
// the window is exhausted or a fetch fails.
type LogQuery struct {
	provider  *Provider
	filter    ethereum.FilterQuery
	fromBlock uint64
	pageSize  uint64

	buffer  []ethtypes.Log
	pos     int
	headCap uint64
	state   queryState
	current ethtypes.Log
	err     error
}

func newLogQuery(p *Provider, q ethereum.FilterQuery, pageSize uint64) *LogQuery {
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	var from uint64
	if q.FromBlock != nil {
		from = q.FromBlock.Uint64()
	}
	return &LogQuery{
		provider:  p,
		filter:    q,
		fromBlock: from,
		pageSize:  pageSize,
	}
}

// Next advances the query, fetching the head block and further pages as
// needed. It returns false once the sequence is exhausted or a fetch failed;
// Err distinguishes the two.
func (q *LogQuery) Next(ctx context.Context) bool {
	for {
		switch q.state {
		case stateInitial:
			head, err := q.provider.BlockNumber(ctx)
			if err != nil {
				q.err = &LogQueryError{Kind: LoadLastBlock, Err: err}
				q.state = stateDone
				return false
			}
			q.headCap = head
			// An explicit upper bound below the head shrinks the range.
			if q.filter.ToBlock != nil && q.filter.ToBlock.Uint64() < head {
				q.headCap = q.filter.ToBlock.Uint64()
			}
			q.state = stateLoadLogs

		case stateLoadLogs:
			if q.fromBlock > q.headCap {
				q.state = stateDone
				return false
			}
			to := q.fromBlock + q.pageSize - 1
			if to > q.headCap {
				to = q.headCap
			}
			page := q.filter
			page.FromBlock = new(big.Int).SetUint64(q.fromBlock)
			page.ToBlock = new(big.Int).SetUint64(to)

			logs, err := q.provider.FilterLogs(ctx, page)
			if err != nil {
				q.err = &LogQueryError{Kind: LoadLogs, Err: err}
				q.state = stateDone
				return false
			}
			q.buffer = logs
			q.pos = 0
			q.fromBlock = to + 1
			q.state = stateConsume

		case stateConsume:
			if q.pos < len(q.buffer) {
				q.current = q.buffer[q.pos]
				q.pos++
				return true
			}
			q.state = stateLoadLogs

		case stateDone:
			return false
		}
	}
}

// Log returns the log the last successful Next positioned the query on.
func (q *LogQuery) Log() ethtypes.Log { return q.current }

// Err returns the error that terminated the query, or nil on clean
// exhaustion.
func (q *LogQuery) Err() error { return q.err }
