package portfolio

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cryptobrief/cache"
)

// Position is one held asset for one account.
type Position struct {
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
	AvgCost  float64 `json:"avg_cost"`
}

// Profile holds the account fields the briefing needs.
type Profile struct {
	DisplayName string `json:"display_name"`
}

// Transaction is one buy or sell recorded against an account.
type Transaction struct {
	Time     time.Time `json:"time"`
	Symbol   string    `json:"symbol"`
	Side     string    `json:"side"` // "BUY" or "SELL"
	Quantity float64   `json:"quantity"`
	Price    float64   `json:"price"`
}

const maxTransactions = 50

// Store is the Redis-backed portfolio store.
//
// Key scheme:
//
//	user:{id}:profile      -> Profile
//	user:{id}:positions    -> map[symbol]Position
//	user:{id}:transactions -> []Transaction (newest first, capped)
type Store struct {
	redis *cache.RedisClient
}

// NewStore creates a portfolio store.
func NewStore(redis *cache.RedisClient) *Store {
	return &Store{redis: redis}
}

// GetAllAccountIDs lists every account with a stored profile.
func (s *Store) GetAllAccountIDs(ctx context.Context) ([]int64, error) {
	keys, err := s.redis.Keys(ctx, "user:*:profile")
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	ids := make([]int64, 0, len(keys))
	for _, key := range keys {
		parts := strings.Split(key, ":")
		if len(parts) != 3 {
			continue
		}
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// GetProfile returns an account's profile, or a zero profile if none is stored.
func (s *Store) GetProfile(ctx context.Context, accountID int64) (Profile, error) {
	var p Profile
	err := s.redis.Get(ctx, profileKey(accountID), &p)
	if err != nil {
		return Profile{}, nil // no profile stored yet
	}
	return p, nil
}

// SetProfile stores an account's profile.
func (s *Store) SetProfile(ctx context.Context, accountID int64, p Profile) error {
	return s.redis.Set(ctx, profileKey(accountID), p, 0)
}

// GetPositions returns all of an account's held positions.
func (s *Store) GetPositions(ctx context.Context, accountID int64) ([]Position, error) {
	bySymbol, err := s.getPositionMap(ctx, accountID)
	if err != nil {
		return nil, err
	}

	out := make([]Position, 0, len(bySymbol))
	for sym, pos := range bySymbol {
		pos.Symbol = sym
		out = append(out, pos)
	}
	return out, nil
}

// AddLot records a buy: a new position on first buy, a weighted-average
// cost update on subsequent buys.
func (s *Store) AddLot(ctx context.Context, accountID int64, symbol string, quantity, price float64) error {
	if quantity <= 0 || price <= 0 {
		return fmt.Errorf("invalid lot: quantity=%v price=%v", quantity, price)
	}
	symbol = strings.ToUpper(symbol)

	bySymbol, err := s.getPositionMap(ctx, accountID)
	if err != nil {
		return err
	}

	pos, held := bySymbol[symbol]
	if held {
		// Weighted average cost across old and new lots
		totalQty := pos.Quantity + quantity
		pos.AvgCost = (pos.AvgCost*pos.Quantity + price*quantity) / totalQty
		pos.Quantity = totalQty
	} else {
		pos = Position{Quantity: quantity, AvgCost: price}
	}
	bySymbol[symbol] = pos

	if err := s.redis.Set(ctx, positionsKey(accountID), bySymbol, 0); err != nil {
		return fmt.Errorf("save positions: %w", err)
	}
	return s.appendTransaction(ctx, accountID, Transaction{
		Time: time.Now(), Symbol: symbol, Side: "BUY", Quantity: quantity, Price: price,
	})
}

// ReduceLot records a sell, destroying the position when fully sold.
func (s *Store) ReduceLot(ctx context.Context, accountID int64, symbol string, quantity, price float64) error {
	if quantity <= 0 {
		return fmt.Errorf("invalid quantity: %v", quantity)
	}
	symbol = strings.ToUpper(symbol)

	bySymbol, err := s.getPositionMap(ctx, accountID)
	if err != nil {
		return err
	}

	pos, held := bySymbol[symbol]
	if !held {
		return fmt.Errorf("no %s position for account %d", symbol, accountID)
	}
	if quantity > pos.Quantity {
		return fmt.Errorf("sell %v exceeds held %v %s", quantity, pos.Quantity, symbol)
	}

	pos.Quantity -= quantity
	if pos.Quantity <= 0 {
		delete(bySymbol, symbol)
	} else {
		bySymbol[symbol] = pos
	}

	if err := s.redis.Set(ctx, positionsKey(accountID), bySymbol, 0); err != nil {
		return fmt.Errorf("save positions: %w", err)
	}
	return s.appendTransaction(ctx, accountID, Transaction{
		Time: time.Now(), Symbol: symbol, Side: "SELL", Quantity: quantity, Price: price,
	})
}

// GetTransactions returns the most recent transactions, newest first.
func (s *Store) GetTransactions(ctx context.Context, accountID int64, limit int) ([]Transaction, error) {
	var txs []Transaction
	if err := s.redis.Get(ctx, transactionsKey(accountID), &txs); err != nil {
		return nil, nil
	}
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

func (s *Store) getPositionMap(ctx context.Context, accountID int64) (map[string]Position, error) {
	bySymbol := make(map[string]Position)
	if err := s.redis.Get(ctx, positionsKey(accountID), &bySymbol); err != nil {
		// Missing key means an empty portfolio
		return make(map[string]Position), nil
	}
	return bySymbol, nil
}

func (s *Store) appendTransaction(ctx context.Context, accountID int64, tx Transaction) error {
	txs, _ := s.GetTransactions(ctx, accountID, 0)
	txs = append([]Transaction{tx}, txs...)
	if len(txs) > maxTransactions {
		txs = txs[:maxTransactions]
	}
	return s.redis.Set(ctx, transactionsKey(accountID), txs, 0)
}

func profileKey(id int64) string      { return fmt.Sprintf("user:%d:profile", id) }
func positionsKey(id int64) string    { return fmt.Sprintf("user:%d:positions", id) }
func transactionsKey(id int64) string { return fmt.Sprintf("user:%d:transactions", id) }
