// voile-e2e walks the full exit-note lifecycle locally: create a note, seal
// and park it, register the owner's secret binding, generate a proof, verify
// and spend it, and show that a replay is rejected. Everything runs against
// a local pebble database; nothing leaves the process.
package main

import (
	"errors"
	"flag"
	"os"

	"github.com/voileprotocol/voile-go/crypto/notecipher"
	"github.com/voileprotocol/voile-go/note"
	"github.com/voileprotocol/voile-go/proof"
	"github.com/voileprotocol/voile-go/storage"
	"github.com/voileprotocol/voile-go/util"
	"github.com/voileprotocol/voile-go/verifier"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
	"go.vocdoni.io/dvote/log"
)

func main() {
	amount := flag.Uint64("amount", 1_000_000, "amount to exit (base units)")
	deployment := flag.String("deployment", "voile-dev-v1", "deployment identifier for the domain separator")
	dataDir := flag.String("dataDir", "", "data directory (default: temporary)")
	logLevel := flag.String("logLevel", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	log.Init(*logLevel, "stderr", nil)

	dir := *dataDir
	if dir == "" {
		var err error
		dir, err = os.MkdirTemp("", "voile-e2e-*")
		if err != nil {
			log.Fatal(err)
		}
		defer func() {
			if err := os.RemoveAll(dir); err != nil {
				log.Warnw("could not remove temporary data dir", "dir", dir, "err", err)
			}
		}()
	}

	database, err := metadb.New(db.TypePebble, dir)
	if err != nil {
		log.Fatal(err)
	}
	stg := storage.New(database)
	defer stg.Close()

	domain := proof.NewDomain([]byte(*deployment))
	log.Infow("domain separator derived", "deployment", *deployment, "domain", domain.String())

	// The owner's side: build a note with fresh blinding.
	owner := util.RandomBytes(32)
	ownerSecret := util.RandomBytes(32)
	n, err := note.New(*amount, owner, note.Standard{})
	if err != nil {
		log.Fatal(err)
	}
	c, err := n.Commitment()
	if err != nil {
		log.Fatal(err)
	}
	noteID := n.ID()
	log.Infow("exit note created", "amount", n.Amount, "commitment", c.String())

	// Seal the note and park the ciphertext, then prove it comes back intact.
	key := notecipher.GenerateKey()
	sealed, err := n.Seal(key)
	if err != nil {
		log.Fatal(err)
	}
	if err := stg.PutSealedNote(noteID, sealed); err != nil {
		log.Fatal(err)
	}
	parked, err := stg.SealedNote(noteID)
	if err != nil {
		log.Fatal(err)
	}
	reopened, err := note.Open(parked, key)
	if err != nil {
		log.Fatal(err)
	}
	if !reopened.VerifyCommitment(c) {
		log.Fatalf("reopened note does not open the published commitment")
	}
	log.Infow("sealed note parked and reopened", "ciphertextBytes", len(sealed.Ciphertext))

	// Account setup: register the public binding of the owner secret.
	v := verifier.New(domain, stg, stg)
	binding, err := proof.ComputeSecretBinding(domain, ownerSecret)
	if err != nil {
		log.Fatal(err)
	}
	if err := v.RegisterBinding(c, binding); err != nil {
		log.Fatal(err)
	}

	// Prove and spend.
	gen := proof.NewGenerator(domain)
	p, err := gen.Generate(n, ownerSecret)
	if err != nil {
		log.Fatal(err)
	}
	log.Infow("proof generated", "proof", p.String())

	if err := v.VerifyAndSpend(p); err != nil {
		log.Fatalf("first spend rejected: %v", err)
	}
	log.Infow("proof accepted", "nullifier", p.Nullifier.String())

	// Replay the same proof: must collide on the nullifier.
	err = v.VerifyAndSpend(p)
	switch {
	case errors.Is(err, verifier.ErrNullifierReused):
		log.Infow("replay rejected as expected", "nullifier", p.Nullifier.String())
	case err == nil:
		log.Fatalf("replay was accepted, double-spend guard failed")
	default:
		log.Fatalf("replay failed with unexpected error: %v", err)
	}

	count, err := stg.CountNullifiers()
	if err != nil {
		log.Fatal(err)
	}
	log.Infow("done", "spentNullifiers", count)
}
