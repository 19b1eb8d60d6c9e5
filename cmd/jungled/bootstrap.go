package main

import (
	"errors"
	"fmt"
	"log/slog"

	"jungle/config"
	"jungle/core"
	"jungle/core/types"
	"jungle/native/jungle"
	"jungle/native/lottery"
)

// bootstrap creates the configured programs that are not in state yet.
// Existing programs are left untouched.
func bootstrap(node *core.Node, b config.Bootstrap, logger *slog.Logger) error {
	if j := b.Jungle; j != nil {
		if err := bootstrapJungle(node, j, logger); err != nil {
			return fmt.Errorf("bootstrap jungle: %w", err)
		}
	}
	if l := b.Lottery; l != nil {
		if err := bootstrapLottery(node, l, logger); err != nil {
			return fmt.Errorf("bootstrap lottery: %w", err)
		}
	}
	return nil
}

func bootstrapJungle(node *core.Node, j *config.JungleBootstrap, logger *slog.Logger) error {
	ids, err := parseIdentities(j.Owner, j.Key, j.Mint)
	if err != nil {
		return err
	}
	owner, key, mint := ids[0], ids[1], ids[2]
	if _, err := node.Jungle(key); err == nil {
		logger.Info("jungle already initialized", "jungle", key.String())
		return nil
	} else if !errors.Is(err, jungle.ErrNotFound) {
		return err
	}
	root, err := config.ParseRoot(j.Root)
	if err != nil {
		return err
	}
	cfg, err := node.InitJungle(owner, key, mint, jungle.Params{
		MaximumRarity:           j.MaximumRarity,
		MaximumRarityMultiplier: j.MaximumRarityMultiplier,
		BaseWeeklyEmissions:     j.BaseWeeklyEmissions,
		Start:                   j.Start,
		Root:                    root,
	})
	if err != nil {
		return err
	}
	logger.Info("jungle initialized",
		"jungle", cfg.Key.String(),
		"escrow", cfg.Escrow.String(),
		"rewards", cfg.RewardsAccount.String())
	return nil
}

func bootstrapLottery(node *core.Node, l *config.LotteryBootstrap, logger *slog.Logger) error {
	ids, err := parseIdentities(l.Owner, l.Key, l.Mint, l.Treasury)
	if err != nil {
		return err
	}
	owner, key, mint, treasury := ids[0], ids[1], ids[2], ids[3]
	if _, err := node.Lottery(key); err == nil {
		logger.Info("lottery already initialized", "lottery", key.String())
		return nil
	} else if !errors.Is(err, lottery.ErrNotFound) {
		return err
	}
	cfg, err := node.InitLottery(owner, key, mint, treasury, l.Period, l.Start)
	if err != nil {
		return err
	}
	logger.Info("lottery initialized", "lottery", cfg.Key.String(), "escrow", cfg.Escrow.String())
	return nil
}

func parseIdentities(values ...string) ([]types.Identity, error) {
	out := make([]types.Identity, len(values))
	for i, value := range values {
		id, err := types.ParseIdentity(value)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}
