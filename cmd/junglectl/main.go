package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"jungle/cmd/internal/secret"
	"jungle/core/types"
	"jungle/crypto"
	"jungle/gateway/middleware"
	"jungle/storage/eventlog"
)

const (
	merkleRootCommand  = "merkle-root"
	merkleProofCommand = "merkle-proof"
	tokenCommand       = "token"
	addressCommand     = "address"
	exportCommand      = "export-events"
	defaultSecretEnv   = "JUNGLE_AUTH_SECRET"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case merkleRootCommand:
		err = runMerkleRoot(os.Args[2:])
	case merkleProofCommand:
		err = runMerkleProof(os.Args[2:])
	case tokenCommand:
		err = runToken(os.Args[2:])
	case addressCommand:
		err = runAddress(os.Args[2:])
	case exportCommand:
		err = runExport(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: junglectl <%s|%s|%s|%s|%s> [flags]\n",
		merkleRootCommand, merkleProofCommand, tokenCommand, addressCommand, exportCommand)
}

func runMerkleRoot(args []string) error {
	fs := flag.NewFlagSet(merkleRootCommand, flag.ExitOnError)
	path := fs.String("allowlist", "animals.yaml", "Path to the YAML allow-list")
	fs.Parse(args)

	animals, err := loadAllowList(*path)
	if err != nil {
		return err
	}
	tree, err := buildTree(animals)
	if err != nil {
		return err
	}
	root := tree.Root()
	fmt.Println(hexutil.Encode(root[:]))
	return nil
}

type proofOutput struct {
	Asset   types.Identity  `json:"asset"`
	Rarity  uint64          `json:"rarity"`
	Faction uint64          `json:"faction"`
	Leaf    hexutil.Bytes   `json:"leaf"`
	Root    hexutil.Bytes   `json:"root"`
	Proof   []hexutil.Bytes `json:"proof"`
}

func runMerkleProof(args []string) error {
	fs := flag.NewFlagSet(merkleProofCommand, flag.ExitOnError)
	path := fs.String("allowlist", "animals.yaml", "Path to the YAML allow-list")
	assetFlag := fs.String("asset", "", "Asset identity to prove")
	fs.Parse(args)

	asset, err := types.ParseIdentity(*assetFlag)
	if err != nil {
		return fmt.Errorf("asset: %w", err)
	}
	out, err := proveAsset(*path, asset)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func proveAsset(path string, asset types.Identity) (*proofOutput, error) {
	animals, err := loadAllowList(path)
	if err != nil {
		return nil, err
	}
	idx := indexOf(animals, asset)
	if idx < 0 {
		return nil, fmt.Errorf("asset %s is not on the allow-list", asset)
	}
	tree, err := buildTree(animals)
	if err != nil {
		return nil, err
	}
	proof, _ := tree.Proof(idx)
	leaf, _ := tree.Leaf(idx)
	root := tree.Root()
	out := &proofOutput{
		Asset:   asset,
		Rarity:  animals[idx].Rarity,
		Faction: uint64(animals[idx].Faction),
		Leaf:    leaf[:],
		Root:    root[:],
		Proof:   make([]hexutil.Bytes, len(proof)),
	}
	for i := range proof {
		out.Proof[i] = proof[i][:]
	}
	return out, nil
}

func runToken(args []string) error {
	fs := flag.NewFlagSet(tokenCommand, flag.ExitOnError)
	subject := fs.String("subject", "", "Caller identity the token authenticates")
	issuer := fs.String("issuer", "junglectl", "Token issuer")
	audience := fs.String("audience", "", "Token audience")
	scopes := fs.String("scopes", "", "Space separated scopes, e.g. bank:mint")
	ttl := fs.Duration("ttl", time.Hour, "Token lifetime")
	secretEnv := fs.String("secret-env", defaultSecretEnv, "Environment variable holding the signing secret")
	fs.Parse(args)

	id, err := types.ParseIdentity(*subject)
	if err != nil {
		return fmt.Errorf("subject: %w", err)
	}
	key, err := secret.NewSource(*secretEnv, "signing secret").Get()
	if err != nil {
		return err
	}
	token, err := middleware.IssueToken(key, *issuer, *audience, id, strings.Fields(*scopes), *ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func runExport(args []string) error {
	fs := flag.NewFlagSet(exportCommand, flag.ExitOnError)
	driver := fs.String("driver", "sqlite", "Event log driver: sqlite or postgres")
	dsn := fs.String("dsn", "jungle-data/events.db", "Event log DSN")
	out := fs.String("out", "events.parquet", "Output parquet file")
	after := fs.Uint64("after", 0, "Export records with a sequence above this value")
	eventType := fs.String("type", "", "Only export events of this type")
	fs.Parse(args)

	store, err := eventlog.Open(*driver, *dsn)
	if err != nil {
		return err
	}
	defer store.Close()
	written, err := store.ExportParquet(context.Background(), *out, *after, *eventType)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %d events to %s\n", written, *out)
	return nil
}

type addressOutput struct {
	Bech32 string `json:"bech32"`
	Hex    string `json:"hex"`
}

func runAddress(args []string) error {
	fs := flag.NewFlagSet(addressCommand, flag.ExitOnError)
	derive := fs.String("derive", "", "Derive a program holder: escrow or rewards")
	key := fs.String("key", "", "Program key for -derive")
	mint := fs.String("mint", "", "Reward mint for -derive rewards")
	fs.Parse(args)

	id, err := resolveAddress(*derive, *key, *mint, fs.Arg(0))
	if err != nil {
		return err
	}
	return json.NewEncoder(os.Stdout).Encode(addressOutput{Bech32: id.String(), Hex: id.Hex()})
}

func resolveAddress(derive, key, mint, positional string) (types.Identity, error) {
	switch derive {
	case "":
		return types.ParseIdentity(positional)
	case crypto.TagEscrow:
		k, err := types.ParseIdentity(key)
		if err != nil {
			return types.Identity{}, fmt.Errorf("key: %w", err)
		}
		return crypto.EscrowIdentity(k), nil
	case crypto.TagRewards:
		k, err := types.ParseIdentity(key)
		if err != nil {
			return types.Identity{}, fmt.Errorf("key: %w", err)
		}
		m, err := types.ParseIdentity(mint)
		if err != nil {
			return types.Identity{}, fmt.Errorf("mint: %w", err)
		}
		return crypto.RewardsIdentity(k, m), nil
	default:
		return types.Identity{}, fmt.Errorf("unknown derivation %q", derive)
	}
}
