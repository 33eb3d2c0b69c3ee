// Command vbfv generates parameter files, runs and proves BFV operations,
// verifies proof artifacts and plots the noise budget of a chain of operations.
//
// Usage:
//
//	vbfv paramgen -logn 6 -logq 26 -t 8 -out params.json
//	vbfv demo -out artifacts
//	vbfv verify -params artifacts/params.json -vk artifacts/Add-1.vk -proof artifacts/2-Add-1.proof
//	vbfv noise -params params.json -out noise.html
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tuneinsight/vbfv/bfv"
	"github.com/tuneinsight/vbfv/circuit"
	"github.com/tuneinsight/vbfv/ring"
	"github.com/tuneinsight/vbfv/utils/log"
)

func main() {

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "paramgen":
		err = paramgen(args)
	case "demo":
		err = demo(args)
	case "verify":
		err = verify(args)
	case "noise":
		err = noise(args)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "vbfv: %s\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: vbfv <paramgen|demo|verify|noise> [flags]")
}

func newLogger(level string) *zap.SugaredLogger {
	l := log.ParseLevel(level)
	if l > zapcore.DebugLevel {
		gnarklogger.Disable()
	}
	return log.New(os.Stderr, l)
}

// loadParameters reads path, or returns the toy parameters if path is empty.
func loadParameters(path string) (bfv.Parameters, error) {
	if path == "" {
		return bfv.NewParametersFromLiteral(bfv.PN2Q17)
	}
	return bfv.ReadParametersFile(path)
}

func paramgen(args []string) error {

	fs := flag.NewFlagSet("paramgen", flag.ExitOnError)
	logN := fs.Int("logn", 6, "log2 of the ring degree")
	logQ := fs.Int("logq", 26, "bit size of the ciphertext modulus")
	t := fs.Uint64("t", 8, "plaintext modulus")
	logBase := fs.Int("logbase", 0, "log2 of the gadget base (0 for the default)")
	out := fs.String("out", "params.json", "output parameter file")
	level := fs.String("log", "info", "log level")
	_ = fs.Parse(args)

	logger := newLogger(*level)
	defer func() { _ = logger.Sync() }()

	primes, err := ring.GenerateNTTPrimes(*logQ, uint64(2)<<*logN, 1)
	if err != nil {
		return err
	}

	params, err := bfv.NewParametersFromLiteral(bfv.ParametersLiteral{LogN: *logN, Q: primes[0], T: *t, LogBase: *logBase})
	if err != nil {
		return err
	}

	if err = bfv.WriteParametersFile(*out, params); err != nil {
		return err
	}

	logger.Infow("parameters written", "file", *out, "params", params.String(),
		"noiseBudget", params.NoiseBudget(), "mulCost", params.MulCost())

	return nil
}

// toyKeys returns the keys of the toy ring: s = 1, pk = (-1, 1).
func toyKeys(params bfv.Parameters) (sk *bfv.SecretKey, pk *bfv.PublicKey, rlk *bfv.RelinearizationKey, err error) {

	s := make([]int64, params.N())
	s[0] = 1

	if sk, err = bfv.NewSecretKeyFromInt64(params, s); err != nil {
		return
	}

	kgen, err := bfv.NewKeyGenerator(params)
	if err != nil {
		return
	}

	a := params.RingQ().NewPoly()
	a.Coeffs[0] = 1

	if pk, err = kgen.GenPublicKeyWithRandomness(sk, a, params.RingQ().NewPoly()); err != nil {
		return
	}

	rlk, err = kgen.GenRelinearizationKeyNew(sk)
	return
}

func demo(args []string) (err error) {

	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	paramsFile := fs.String("params", "", "parameter file (toy parameters if empty)")
	m0 := fs.Uint64("m0", 2, "first message")
	m1 := fs.Uint64("m1", 3, "second message")
	out := fs.String("out", "artifacts", "output directory for proofs and verifying keys")
	level := fs.String("log", "info", "log level")
	_ = fs.Parse(args)

	logger := newLogger(*level)
	defer func() { _ = logger.Sync() }()

	params, err := loadParameters(*paramsFile)
	if err != nil {
		return err
	}

	toy := *paramsFile == ""

	var sk *bfv.SecretKey
	var pk *bfv.PublicKey
	if toy {
		sk, pk, _, err = toyKeys(params)
	} else {
		var kgen *bfv.KeyGenerator
		if kgen, err = bfv.NewKeyGenerator(params); err == nil {
			sk, pk, _, err = kgen.GenKeys()
		}
	}
	if err != nil {
		return err
	}
	defer sk.Zeroize()

	enc, err := bfv.NewEncryptor(params, pk)
	if err != nil {
		return err
	}

	dec, err := bfv.NewDecryptor(params, sk)
	if err != nil {
		return err
	}

	ecd := bfv.NewEncoder(params)
	eval := bfv.NewEvaluator(params)

	var records []*bfv.OperationRecord
	var secrets []circuit.Secrets

	encrypt := func(m uint64) (*bfv.Ciphertext, error) {

		pt, err := ecd.Encode([]uint64{m})
		if err != nil {
			return nil, err
		}

		var ct *bfv.Ciphertext
		var rnd *bfv.EncryptionRandomness
		if toy {
			rQ := params.RingQ()
			rnd = &bfv.EncryptionRandomness{U: rQ.NewPoly(), E0: rQ.NewPoly(), E1: rQ.NewPoly()}
			rnd.U.Coeffs[0] = 1
			ct, err = enc.EncryptWithRandomness(pt, rnd)
		} else {
			ct, rnd, err = enc.EncryptAndReturnRandomness(pt)
		}
		if err != nil {
			return nil, err
		}

		records = append(records, bfv.NewEncryptRecord(pk, pt, ct))
		secrets = append(secrets, circuit.Secrets{Randomness: rnd})
		return ct, nil
	}

	ct0, err := encrypt(*m0)
	if err != nil {
		return err
	}

	ct1, err := encrypt(*m1)
	if err != nil {
		return err
	}

	sum, err := eval.Add(ct0, ct1)
	if err != nil {
		return err
	}
	records = append(records, bfv.NewAddRecord(ct0, ct1, sum))
	secrets = append(secrets, circuit.Secrets{})

	prod, err := eval.Mul(ct0, ct1)
	if err != nil {
		return err
	}
	records = append(records, bfv.NewMulRecord(ct0, ct1, prod))
	secrets = append(secrets, circuit.Secrets{})

	for _, ct := range []*bfv.Ciphertext{sum, prod} {
		pt, err := dec.Decrypt(ct)
		if err != nil {
			return err
		}
		records = append(records, bfv.NewDecryptRecord(pk, ct, pt))
		secrets = append(secrets, circuit.Secrets{SecretKey: sk})
		logger.Infow("decrypted", "degree", ct.Degree(), "value", pt.Value.Coeffs[0], "noiseBudget", ct.NoiseBudget)
	}

	system, err := circuit.NewSystem(params, circuit.WithLogger(logger))
	if err != nil {
		return err
	}

	proofs, err := system.ProveBatch(records, secrets)
	if err != nil {
		return err
	}

	if err = os.MkdirAll(*out, 0o700); err != nil {
		return err
	}

	written := map[string]bool{}
	for i, proof := range proofs {

		name := fmt.Sprintf("%d-%s-%d", i, proof.Kind, proof.Degree)
		if err = writeArtifact(filepath.Join(*out, name+".proof"), proof); err != nil {
			return err
		}

		vkName := fmt.Sprintf("%s-%d.vk", proof.Kind, proof.Degree)
		if !written[vkName] {
			vk, err := system.ExportVerifyingKey(proof.Kind, proof.Degree)
			if err != nil {
				return err
			}
			if err = writeArtifact(filepath.Join(*out, vkName), vk); err != nil {
				return err
			}
			written[vkName] = true
		}

		ok, err := system.Verify(proof.Statement(), proof)
		if err != nil {
			return err
		}
		logger.Infow("proof generated", "artifact", name, "verified", ok)
	}

	return bfv.WriteParametersFile(filepath.Join(*out, "params.json"), params)
}

func writeArtifact(path string, obj interface {
	MarshalBinary() ([]byte, error)
}) error {
	data, err := obj.MarshalBinary()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func verify(args []string) error {

	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	paramsFile := fs.String("params", "", "parameter file (toy parameters if empty)")
	vkFiles := fs.String("vk", "", "comma separated verifying key files")
	proofFiles := fs.String("proof", "", "comma separated proof files")
	level := fs.String("log", "info", "log level")
	_ = fs.Parse(args)

	logger := newLogger(*level)
	defer func() { _ = logger.Sync() }()

	params, err := loadParameters(*paramsFile)
	if err != nil {
		return err
	}

	var vks []*circuit.VerifyingKey
	for _, path := range splitList(*vkFiles) {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		vk := new(circuit.VerifyingKey)
		if err = vk.UnmarshalBinary(data); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		vks = append(vks, vk)
	}

	verifier, err := circuit.NewVerifier(params, vks...)
	if err != nil {
		return err
	}

	rejected := 0
	for _, path := range splitList(*proofFiles) {

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		proof := new(circuit.Proof)
		if err = proof.UnmarshalBinary(data); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		ok, err := verifier.Verify(proof.Statement(), proof)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		if !ok {
			rejected++
		}

		logger.Infow("proof checked", "file", path, "kind", proof.Kind.String(), "verified", ok)
	}

	if rejected > 0 {
		return fmt.Errorf("%d proofs rejected", rejected)
	}

	return nil
}

func splitList(s string) (list []string) {
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			list = append(list, v)
		}
	}
	return
}

func noise(args []string) error {

	fs := flag.NewFlagSet("noise", flag.ExitOnError)
	paramsFile := fs.String("params", "", "parameter file")
	depth := fs.Int("depth", 8, "maximum number of multiplications")
	out := fs.String("out", "noise.html", "output chart")
	level := fs.String("log", "info", "log level")
	_ = fs.Parse(args)

	logger := newLogger(*level)
	defer func() { _ = logger.Sync() }()

	if *paramsFile == "" {
		return fmt.Errorf("noise: -params is required, the toy parameters carry no sampled noise")
	}

	params, err := bfv.ReadParametersFile(*paramsFile)
	if err != nil {
		return err
	}

	kgen, err := bfv.NewKeyGenerator(params)
	if err != nil {
		return err
	}

	sk, pk, rlk, err := kgen.GenKeys()
	if err != nil {
		return err
	}
	defer sk.Zeroize()

	enc, err := bfv.NewEncryptor(params, pk)
	if err != nil {
		return err
	}

	dec, err := bfv.NewDecryptor(params, sk)
	if err != nil {
		return err
	}

	eval := bfv.NewEvaluator(params)

	// Powers of one stay one.
	one, err := bfv.NewEncoder(params).Encode([]uint64{1})
	if err != nil {
		return err
	}

	ct, err := enc.Encrypt(one)
	if err != nil {
		return err
	}

	var labels []string
	var estimated, measured []opts.LineData

	record := func(label string, ct *bfv.Ciphertext) error {
		ns, err := dec.Noise(ct, one)
		if err != nil {
			return err
		}
		labels = append(labels, label)
		estimated = append(estimated, opts.LineData{Value: ct.NoiseBudget})
		measured = append(measured, opts.LineData{Value: ns.Budget})
		logger.Infow("noise", "step", label, "estimated", ct.NoiseBudget, "measured", ns.Budget, "max", ns.Max, "stddev", ns.StdDev)
		return nil
	}

	if err = record("fresh", ct); err != nil {
		return err
	}

	for i := 1; i <= *depth; i++ {

		next, err := eval.MulRelin(ct, ct, rlk)
		if errors.Is(err, bfv.ErrNoiseBudgetExceeded) {
			logger.Infow("noise budget exhausted", "multiplications", i-1)
			break
		}
		if err != nil {
			return err
		}

		ct = next
		if err = record(fmt.Sprintf("mul %d", i), ct); err != nil {
			return err
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Noise budget", Subtitle: params.String()}),
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Noise budget", Width: "1200px", Height: "600px"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "bits"}),
	)
	line.SetXAxis(labels).
		AddSeries("estimated", estimated).
		AddSeries("measured", measured)

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()

	if err = line.Render(f); err != nil {
		return err
	}

	logger.Infow("chart written", "file", *out)

	return nil
}
