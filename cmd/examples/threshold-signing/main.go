// Package main demonstrates 2-of-3 threshold ECDSA signing over an
// in-process network
package main

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/Caqil/threshold-ecdsa/pkg/config"
	"github.com/Caqil/threshold-ecdsa/pkg/crypto/curve"
	"github.com/Caqil/threshold-ecdsa/pkg/crypto/rand"
	"github.com/Caqil/threshold-ecdsa/pkg/dealer"
	"github.com/Caqil/threshold-ecdsa/pkg/logger"
	"github.com/Caqil/threshold-ecdsa/pkg/network"
	"github.com/Caqil/threshold-ecdsa/pkg/signing"
	"github.com/Caqil/threshold-ecdsa/pkg/storage"
)

func main() {
	flags := pflag.NewFlagSet("threshold-signing", pflag.ExitOnError)
	configPath := flags.String("config", "", "settings file (yaml, json or toml)")
	message := flags.String("message", "Satoshi Nakamoto", "message to sign")
	signerList := flags.String("signers", "1,3", "comma separated signer indices")
	threshold := flags.Int("threshold", 1, "polynomial degree; threshold+1 parties sign")
	parties := flags.Int("parties", 3, "number of share holders")
	flags.String(config.KeyShareDir, "", "directory for encrypted shares (password from TECDSA_SHARE_PASSWORD)")
	flags.String(config.KeyLogLevel, "info", "log level")
	_ = flags.Parse(os.Args[1:])

	settings, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	if err := settings.BindPFlags(flags); err != nil {
		log.Fatalf("Failed to bind flags: %v", err)
	}
	cfg, err := settings.Signing()
	if err != nil {
		log.Fatalf("Invalid signing settings: %v", err)
	}
	lg := logger.New(settings.Logger())

	signers, err := parseSigners(*signerList)
	if err != nil {
		log.Fatalf("Invalid signer list: %v", err)
	}

	fmt.Printf("=== Threshold ECDSA: %d-of-%d ===\n\n", *threshold+1, *parties)

	// Phase 1: trusted dealer
	fmt.Println("Phase 1: Dealing shares...")
	c, err := curve.NewCurve(curve.Secp256k1)
	if err != nil {
		log.Fatalf("Failed to create curve: %v", err)
	}
	dealing, err := dealer.Deal(rand.Reader, c, *threshold, *parties, nil)
	if err != nil {
		log.Fatalf("Failed to deal shares: %v", err)
	}
	fmt.Printf("  ✓ Dealt %d shares\n", len(dealing.Shares))
	fmt.Printf("  ✓ Public key: %x\n", dealing.PublicKey.Bytes())

	// Phase 2: optional round trip through encrypted storage
	shares := dealing.Shares
	if dir := settings.GetString(config.KeyShareDir); dir != "" {
		fmt.Println("\nPhase 2: Storing shares...")
		if shares, err = storeAndReload(dir, shares); err != nil {
			log.Fatalf("Share storage failed: %v", err)
		}
		fmt.Printf("  ✓ Shares stored in %s and reloaded\n", dir)
	}

	// Phase 3: signing
	fmt.Printf("\nPhase 3: Signing %q with signers %v...\n", *message, signers)
	sig, err := sign(lg, cfg, shares, signers, []byte(*message))
	if err != nil {
		log.Fatalf("Signing failed: %v", err)
	}

	der, err := sig.DER()
	if err != nil {
		log.Fatalf("Failed to encode signature: %v", err)
	}
	fmt.Printf("  r:   %x\n", curve.PaddedBytes(sig.R, signing.ScalarSize))
	fmt.Printf("  s:   %x\n", curve.PaddedBytes(sig.S, signing.ScalarSize))
	fmt.Printf("  DER: %x\n", der)

	// Phase 4: verification
	fmt.Println("\nPhase 4: Verifying...")
	group, err := signing.NewGroup(c)
	if err != nil {
		log.Fatalf("Failed to create group: %v", err)
	}
	digest := sha256.Sum256([]byte(*message))
	if !signing.VerifyMessage(group, dealing.PublicKey, []byte(*message), sig) ||
		!signing.VerifyBTCEC(dealing.PublicKey, digest[:], sig) {
		log.Fatal("Signature verification failed")
	}
	fmt.Println("  ✓ Signature verified against the group public key")
}

func sign(lg *logger.Logger, cfg *signing.Config, shares []*dealer.KeyShare, signers []int, msg []byte) (*signing.Signature, error) {
	net := network.NewLocalNetwork(signers)
	sessionID, err := signing.NewSessionID(rand.Reader, signers, shares[0].PublicKey)
	if err != nil {
		return nil, err
	}

	sigs := make([]*signing.Signature, len(signers))
	eg, ctx := errgroup.WithContext(context.Background())
	for i, idx := range signers {
		i, idx := i, idx
		if idx < 1 || idx > len(shares) {
			return nil, fmt.Errorf("no share for signer %d", idx)
		}
		signer, err := signing.NewSigner(shares[idx-1], cfg, lg)
		if err != nil {
			return nil, err
		}
		tr, err := net.Transport(idx)
		if err != nil {
			return nil, err
		}
		session, err := signer.NewSession(tr, signers, sessionID)
		if err != nil {
			return nil, err
		}

		eg.Go(func() error {
			defer tr.Close()
			sig, err := session.Sign(ctx, msg)
			sigs[i] = sig
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return sigs[0], nil
}

func storeAndReload(dir string, shares []*dealer.KeyShare) ([]*dealer.KeyShare, error) {
	password := os.Getenv("TECDSA_SHARE_PASSWORD")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	out := make([]*dealer.KeyShare, len(shares))
	for i, share := range shares {
		fs, err := storage.NewFileStorage(storage.DefaultConfig(filepath.Join(dir, fmt.Sprintf("share-%d.enc", share.Index))))
		if err != nil {
			return nil, err
		}
		if err := fs.Save(share, password); err != nil {
			return nil, err
		}
		if out[i], err = fs.Load(password); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func parseSigners(list string) ([]int, error) {
	var out []int
	for _, field := range strings.Split(list, ",") {
		idx, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, err
		}
		out = append(out, idx)
	}
	return out, nil
}
