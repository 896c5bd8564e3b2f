package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nelsonsanch/Persontx-sub001/internal/models"
)

// ErrNoPendingProposal 没有待确认的使用计数提议（未提出、已确认或已过期）
var ErrNoPendingProposal = errors.New("no pending usage proposal")

const proposalKeyPrefix = "compliance:proposal:"

// PendingProposal 等待操作员确认的使用计数
type PendingProposal struct {
	ProposalID string               `json:"proposal_id"`
	TenantID   string               `json:"tenant_id"`
	AssetID    string               `json:"asset_id"`
	Kind       models.AssetKind     `json:"kind"`
	Reading    float64              `json:"reading"`
	Decision   models.UsageDecision `json:"decision"`
	ProposedAt time.Time            `json:"proposed_at"`
	ExpiresAt  time.Time            `json:"expires_at"`
}

// ProposalStore 保存待确认提议，每个资产最多一个（新提议覆盖旧提议）
// 过期由 KV 的 TTL 控制
type ProposalStore struct {
	kv KV
}

func NewProposalStore(kv KV) *ProposalStore {
	return &ProposalStore{kv: kv}
}

func proposalKey(tenantID, assetID string) string {
	return proposalKeyPrefix + tenantID + ":" + assetID
}

// Put 保存提议
func (s *ProposalStore) Put(ctx context.Context, p PendingProposal, ttl time.Duration) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode proposal: %w", err)
	}
	if err := s.kv.Set(ctx, proposalKey(p.TenantID, p.AssetID), string(b), ttl); err != nil {
		return fmt.Errorf("failed to store proposal: %w", err)
	}
	return nil
}

// Get 读取资产的待确认提议
func (s *ProposalStore) Get(ctx context.Context, tenantID, assetID string) (*PendingProposal, error) {
	raw, err := s.kv.Get(ctx, proposalKey(tenantID, assetID))
	if err != nil {
		if errors.Is(err, ErrMiss) {
			return nil, ErrNoPendingProposal
		}
		return nil, fmt.Errorf("failed to load proposal: %w", err)
	}
	var p PendingProposal
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("failed to decode proposal: %w", err)
	}
	return &p, nil
}

// Delete 删除提议（确认或放弃后）
func (s *ProposalStore) Delete(ctx context.Context, tenantID, assetID string) error {
	if err := s.kv.Del(ctx, proposalKey(tenantID, assetID)); err != nil {
		return fmt.Errorf("failed to delete proposal: %w", err)
	}
	return nil
}

// List 列出租户下全部待确认提议
func (s *ProposalStore) List(ctx context.Context, tenantID string) ([]PendingProposal, error) {
	keys, err := s.kv.ScanKeys(ctx, proposalKeyPrefix+tenantID+":*")
	if err != nil {
		return nil, fmt.Errorf("failed to scan proposals: %w", err)
	}
	out := make([]PendingProposal, 0, len(keys))
	for _, key := range keys {
		assetID := strings.TrimPrefix(key, proposalKeyPrefix+tenantID+":")
		p, err := s.Get(ctx, tenantID, assetID)
		if err != nil {
			if errors.Is(err, ErrNoPendingProposal) {
				continue
			}
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}
