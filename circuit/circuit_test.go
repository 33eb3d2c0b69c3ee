package circuit

import (
	"bytes"
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuneinsight/vbfv/bfv"
	"github.com/tuneinsight/vbfv/utils/sampling"
)

func testString(opname string, p bfv.Parameters) string {
	return fmt.Sprintf("%s/LogN=%d/Q=%d/T=%d", opname, p.LogN(), p.Q(), p.T())
}

type testContext struct {
	params bfv.Parameters
	sk     *bfv.SecretKey
	pk     *bfv.PublicKey
	rlk    *bfv.RelinearizationKey
	enc    *bfv.Encryptor
	dec    *bfv.Decryptor
	eval   *bfv.Evaluator
	ecd    *bfv.Encoder
	system *System
}

// newToyContext returns the ring Z_17[X]/(X^4+1) with t=4, s=1, pk=(16, 1)
// and encryptions with u=1 and no error.
func newToyContext(t *testing.T, minNoiseBudget int) (tc *testContext) {

	pl := bfv.PN2Q17
	pl.MinNoiseBudget = minNoiseBudget

	var err error
	tc = new(testContext)

	tc.params, err = bfv.NewParametersFromLiteral(pl)
	require.NoError(t, err)

	rQ := tc.params.RingQ()

	tc.sk, err = bfv.NewSecretKeyFromInt64(tc.params, []int64{1, 0, 0, 0})
	require.NoError(t, err)

	kgen, err := bfv.NewKeyGenerator(tc.params)
	require.NoError(t, err)

	a, err := rQ.NewPolyFromCoeffs([]uint64{1, 0, 0, 0})
	require.NoError(t, err)

	tc.pk, err = kgen.GenPublicKeyWithRandomness(tc.sk, a, rQ.NewPoly())
	require.NoError(t, err)

	tc.rlk, err = kgen.GenRelinearizationKeyNew(tc.sk)
	require.NoError(t, err)

	tc.enc, err = bfv.NewEncryptor(tc.params, tc.pk)
	require.NoError(t, err)

	tc.dec, err = bfv.NewDecryptor(tc.params, tc.sk)
	require.NoError(t, err)

	tc.eval = bfv.NewEvaluator(tc.params)
	tc.ecd = bfv.NewEncoder(tc.params)

	tc.system, err = NewSystem(tc.params)
	require.NoError(t, err)

	return
}

func (tc *testContext) randomness(t *testing.T) *bfv.EncryptionRandomness {
	rQ := tc.params.RingQ()
	u, err := rQ.NewPolyFromCoeffs([]uint64{1, 0, 0, 0})
	require.NoError(t, err)
	return &bfv.EncryptionRandomness{U: u, E0: rQ.NewPoly(), E1: rQ.NewPoly()}
}

func (tc *testContext) encrypt(t *testing.T, m ...uint64) (*bfv.Plaintext, *bfv.Ciphertext, *bfv.EncryptionRandomness) {
	pt, err := tc.ecd.Encode(m)
	require.NoError(t, err)
	rnd := tc.randomness(t)
	ct, err := tc.enc.EncryptWithRandomness(pt, rnd)
	require.NoError(t, err)
	return pt, ct, rnd
}

// prove arithmetizes, proves and verifies rec against its own statement.
func (tc *testContext) prove(t *testing.T, rec *bfv.OperationRecord, secrets Secrets) *Proof {

	c, err := tc.system.Arithmetize(rec)
	require.NoError(t, err)
	require.Equal(t, rec.Kind, c.Kind())
	require.Positive(t, c.NbConstraints())

	w, err := tc.system.GenerateWitness(rec, secrets)
	require.NoError(t, err)

	proof, err := tc.system.Prove(c, w)
	require.NoError(t, err)

	stmt, err := NewStatement(rec)
	require.NoError(t, err)
	require.True(t, stmt.Equal(proof.Statement()))

	ok, err := tc.system.Verify(stmt, proof)
	require.NoError(t, err)
	require.True(t, ok)

	return proof
}

// newSampledContext returns a context of pl with sampled keys.
func newSampledContext(t *testing.T, pl bfv.ParametersLiteral) (tc *testContext) {

	var err error
	tc = new(testContext)

	tc.params, err = bfv.NewParametersFromLiteral(pl)
	require.NoError(t, err)

	prng, err := sampling.NewKeyedPRNG([]byte{'v', 'b', 'f', 'v'})
	require.NoError(t, err)

	kgen, err := bfv.NewKeyGeneratorWithPRNG(tc.params, prng)
	require.NoError(t, err)

	tc.sk, tc.pk, tc.rlk, err = kgen.GenKeys()
	require.NoError(t, err)

	tc.enc, err = bfv.NewEncryptorWithPRNG(tc.params, tc.pk, prng)
	require.NoError(t, err)

	tc.dec, err = bfv.NewDecryptor(tc.params, tc.sk)
	require.NoError(t, err)

	tc.eval = bfv.NewEvaluator(tc.params)
	tc.ecd = bfv.NewEncoder(tc.params)

	tc.system, err = NewSystem(tc.params)
	require.NoError(t, err)

	return
}

// rejects asserts that the proof does not verify once corrupt has altered
// a public value of its statement.
func (tc *testContext) rejects(t *testing.T, proof *Proof, corrupt func(stmt *Statement)) {
	stmt := proof.Statement()
	corrupt(stmt)
	ok, err := tc.system.Verify(stmt, proof)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestScenario(t *testing.T) {

	tc := newToyContext(t, 0)

	_, ct2, _ := tc.encrypt(t, 2)
	_, ct3, _ := tc.encrypt(t, 3)

	t.Run(testString("Add", tc.params), func(t *testing.T) {

		sum, err := tc.eval.Add(ct2, ct3)
		require.NoError(t, err)

		pt, err := tc.dec.Decrypt(sum)
		require.NoError(t, err)
		require.Equal(t, uint64(1), pt.Value.Coeffs[0])

		tc.prove(t, bfv.NewAddRecord(ct2, ct3, sum), Secrets{})
	})

	t.Run(testString("Mul", tc.params), func(t *testing.T) {

		prod, err := tc.eval.Mul(ct2, ct3)
		require.NoError(t, err)

		pt, err := tc.dec.Decrypt(prod)
		require.NoError(t, err)
		require.Equal(t, uint64(2), pt.Value.Coeffs[0])

		proof := tc.prove(t, bfv.NewMulRecord(ct2, ct3, prod), Secrets{})

		// Corrupting the first output coefficient breaks the proof.
		stmt := proof.Statement()
		stmt.Output.Value[0].Coeffs[0] = (stmt.Output.Value[0].Coeffs[0] + 1) % tc.params.Q()

		ok, err := tc.system.Verify(stmt, proof)
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestCompleteness(t *testing.T) {

	tc := newToyContext(t, -64)

	pt, ct, rnd := tc.encrypt(t, 1, 2, 3, 0)
	_, ct1, _ := tc.encrypt(t, 3, 3, 0, 1)

	t.Run(testString("Encrypt", tc.params), func(t *testing.T) {
		tc.prove(t, bfv.NewEncryptRecord(tc.pk, pt, ct), Secrets{Randomness: rnd})
		// The randomness is not owned by the prover.
		require.Equal(t, uint64(1), rnd.U.Coeffs[0])
	})

	t.Run(testString("Decrypt/Degree=1", tc.params), func(t *testing.T) {
		ptDec, err := tc.dec.Decrypt(ct)
		require.NoError(t, err)
		require.True(t, pt.Equal(ptDec))
		tc.prove(t, bfv.NewDecryptRecord(tc.pk, ct, ptDec), Secrets{SecretKey: tc.sk})
	})

	prod, err := tc.eval.Mul(ct, ct1)
	require.NoError(t, err)

	t.Run(testString("Add/Degree=2", tc.params), func(t *testing.T) {
		sum, err := tc.eval.Add(prod, prod)
		require.NoError(t, err)
		tc.prove(t, bfv.NewAddRecord(prod, prod, sum), Secrets{})
	})

	t.Run(testString("Decrypt/Degree=2", tc.params), func(t *testing.T) {
		ptDec, err := tc.dec.Decrypt(prod)
		require.NoError(t, err)
		tc.prove(t, bfv.NewDecryptRecord(tc.pk, prod, ptDec), Secrets{SecretKey: tc.sk})
	})

	t.Run(testString("Relinearize", tc.params), func(t *testing.T) {
		relin, err := tc.eval.Relinearize(prod, tc.rlk)
		require.NoError(t, err)
		proof := tc.prove(t, bfv.NewRelinearizeRecord(prod, tc.rlk, relin), Secrets{})

		commitment, err := KeyCommitment(tc.rlk)
		require.NoError(t, err)
		require.Equal(t, commitment, proof.Statement().KeyCommitment)

		// A proof does not verify against the commitment of another key.
		stmt := proof.Statement()
		stmt.KeyCommitment = new(big.Int).Add(new(big.Int).SetBytes(commitment), big.NewInt(1)).FillBytes(make([]byte, 32))
		ok, err := tc.system.Verify(stmt, proof)
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestSampledParameters(t *testing.T) {

	if testing.Short() {
		t.Skip("skipped in short mode")
	}

	tc := newSampledContext(t, bfv.PN6QP26)
	params := tc.params
	Q, T := params.Q(), params.T()

	require.Greater(t, params.GadgetLen(), 1)

	values := func(offset uint64) (m []uint64) {
		m = make([]uint64, params.N())
		for i := range m {
			m[i] = (uint64(i) + offset) % T
		}
		return
	}

	encrypt := func(m []uint64) (*bfv.Plaintext, *bfv.Ciphertext, *bfv.EncryptionRandomness) {
		pt, err := tc.ecd.Encode(m)
		require.NoError(t, err)
		ct, rnd, err := tc.enc.EncryptAndReturnRandomness(pt)
		require.NoError(t, err)
		return pt, ct, rnd
	}

	bump := func(p []uint64, mod uint64) {
		p[1] = (p[1] + 1) % mod
	}

	pt0, ct0, rnd0 := encrypt(values(0))
	_, ct1, _ := encrypt(values(3))

	t.Run(testString("Encrypt", params), func(t *testing.T) {
		proof := tc.prove(t, bfv.NewEncryptRecord(tc.pk, pt0, ct0), Secrets{Randomness: rnd0})
		tc.rejects(t, proof, func(stmt *Statement) { bump(stmt.Output.Value[1].Coeffs, Q) })
		tc.rejects(t, proof, func(stmt *Statement) { bump(stmt.PublicKey.Value[0].Coeffs, Q) })
	})

	t.Run(testString("Add", params), func(t *testing.T) {
		sum, err := tc.eval.Add(ct0, ct1)
		require.NoError(t, err)
		proof := tc.prove(t, bfv.NewAddRecord(ct0, ct1, sum), Secrets{})
		tc.rejects(t, proof, func(stmt *Statement) { bump(stmt.Output.Value[0].Coeffs, Q) })
	})

	prod, err := tc.eval.Mul(ct0, ct1)
	require.NoError(t, err)

	t.Run(testString("Mul", params), func(t *testing.T) {
		proof := tc.prove(t, bfv.NewMulRecord(ct0, ct1, prod), Secrets{})
		tc.rejects(t, proof, func(stmt *Statement) { bump(stmt.Output.Value[2].Coeffs, Q) })
		tc.rejects(t, proof, func(stmt *Statement) { bump(stmt.Inputs[1].Value[0].Coeffs, Q) })
	})

	relin, err := tc.eval.Relinearize(prod, tc.rlk)
	require.NoError(t, err)

	t.Run(testString("Relinearize", params), func(t *testing.T) {

		commitment, err := KeyCommitment(tc.rlk)
		require.NoError(t, err)

		proof := tc.prove(t, bfv.NewRelinearizeRecord(prod, tc.rlk, relin), Secrets{})
		require.Equal(t, commitment, proof.Statement().KeyCommitment)

		tc.rejects(t, proof, func(stmt *Statement) { bump(stmt.Output.Value[1].Coeffs, Q) })

		// The commitment covers every digit of the key.
		other := tc.rlk.CopyNew()
		bump(other.Value[len(other.Value)-1][1].Coeffs, Q)
		otherCommitment, err := KeyCommitment(other)
		require.NoError(t, err)
		require.NotEqual(t, commitment, otherCommitment)
		tc.rejects(t, proof, func(stmt *Statement) { stmt.KeyCommitment = otherCommitment })
	})

	t.Run(testString("Decrypt", params), func(t *testing.T) {

		for _, ct := range []*bfv.Ciphertext{ct0, prod, relin} {

			pt, err := tc.dec.Decrypt(ct)
			require.NoError(t, err)

			proof := tc.prove(t, bfv.NewDecryptRecord(tc.pk, ct, pt), Secrets{SecretKey: tc.sk})
			tc.rejects(t, proof, func(stmt *Statement) { bump(stmt.Plaintext.Value.Coeffs, T) })
		}

		pt, err := tc.dec.Decrypt(relin)
		require.NoError(t, err)
		bump(pt.Value.Coeffs, T)

		_, err = tc.system.GenerateWitness(bfv.NewDecryptRecord(tc.pk, relin, pt), Secrets{SecretKey: tc.sk})
		require.ErrorIs(t, err, ErrUnsatisfied)
	})
}

func TestBatch(t *testing.T) {

	tc := newToyContext(t, 0)

	ptA, ctA, rndA := tc.encrypt(t, 2)
	ptB, ctB, rndB := tc.encrypt(t, 3)

	sum, err := tc.eval.Add(ctA, ctB)
	require.NoError(t, err)

	records := []*bfv.OperationRecord{
		bfv.NewEncryptRecord(tc.pk, ptA, ctA),
		bfv.NewEncryptRecord(tc.pk, ptB, ctB),
		bfv.NewAddRecord(ctA, ctB, sum),
	}

	secrets := []Secrets{{Randomness: rndA}, {Randomness: rndB}, {}}

	proofs, err := tc.system.ProveBatch(records, secrets)
	require.NoError(t, err)
	require.Len(t, proofs, len(records))

	stmts := make([]*Statement, len(proofs))
	for i := range proofs {
		stmts[i] = proofs[i].Statement()
	}

	ok, err := tc.system.VerifyBatch(stmts, proofs)
	require.NoError(t, err)
	require.Equal(t, []bool{true, true, true}, ok)

	// The proof of the first encryption does not hold for the second one.
	ok, err = tc.system.VerifyBatch(stmts[:1], proofs[1:2])
	require.NoError(t, err)
	require.Equal(t, []bool{false}, ok)

	_, err = tc.system.ProveBatch(records, secrets[:1])
	require.Error(t, err)

	_, err = tc.system.ProveBatch(records, nil)
	require.ErrorIs(t, err, ErrMissingSecret)
}

func TestArtifacts(t *testing.T) {

	tc := newToyContext(t, 0)

	_, ct2, _ := tc.encrypt(t, 2)
	_, ct3, _ := tc.encrypt(t, 3)

	prod, err := tc.eval.Mul(ct2, ct3)
	require.NoError(t, err)

	proof := tc.prove(t, bfv.NewMulRecord(ct2, ct3, prod), Secrets{})

	t.Run("Proof", func(t *testing.T) {

		data, err := proof.MarshalBinary()
		require.NoError(t, err)

		decoded := new(Proof)
		require.NoError(t, decoded.UnmarshalBinary(data))
		require.Equal(t, proof.Kind, decoded.Kind)
		require.Equal(t, proof.Degree, decoded.Degree)
		require.Equal(t, proof.ParametersDigest, decoded.ParametersDigest)
		require.Equal(t, proof.KeyDigest, decoded.KeyDigest)
		require.True(t, proof.Statement().Equal(decoded.Statement()))

		ok, err := tc.system.Verify(decoded.Statement(), decoded)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("VerifyingKey", func(t *testing.T) {

		vk, err := tc.system.ExportVerifyingKey(bfv.OpMultiply, 1)
		require.NoError(t, err)

		var buf bytes.Buffer
		_, err = vk.WriteTo(&buf)
		require.NoError(t, err)

		decoded := new(VerifyingKey)
		_, err = decoded.ReadFrom(&buf)
		require.NoError(t, err)
		require.Equal(t, bfv.OpMultiply, decoded.Kind)
		require.Equal(t, vk.Digest(), decoded.Digest())
		require.Equal(t, proof.KeyDigest, decoded.Digest())

		verifier, err := NewVerifier(tc.params, decoded)
		require.NoError(t, err)

		ok, err := verifier.Verify(proof.Statement(), proof)
		require.NoError(t, err)
		require.True(t, ok)

		// No key for additions.
		sum, err := tc.eval.Add(ct2, ct3)
		require.NoError(t, err)
		stmt, err := NewStatement(bfv.NewAddRecord(ct2, ct3, sum))
		require.NoError(t, err)
		proofAdd := &Proof{Kind: bfv.OpAdd, Degree: 1, ParametersDigest: proof.ParametersDigest, proof: proof.proof}
		_, err = verifier.Verify(stmt, proofAdd)
		require.ErrorIs(t, err, ErrShapeMismatch)

		other, err := bfv.NewParametersFromLiteral(bfv.PN6QP26)
		require.NoError(t, err)
		_, err = NewVerifier(other, decoded)
		require.Error(t, err)
	})

	t.Run("OtherSetup", func(t *testing.T) {

		other, err := NewSystem(tc.params)
		require.NoError(t, err)

		ok, err := other.Verify(proof.Statement(), proof)
		require.ErrorIs(t, err, ErrShapeMismatch)
		require.False(t, ok)

		vk, err := other.ExportVerifyingKey(bfv.OpMultiply, 1)
		require.NoError(t, err)

		verifier, err := NewVerifier(tc.params, vk)
		require.NoError(t, err)

		_, err = verifier.Verify(proof.Statement(), proof)
		require.ErrorIs(t, err, ErrShapeMismatch)
	})

	t.Run("Empty", func(t *testing.T) {

		empty := new(Proof)
		require.Nil(t, empty.Statement())

		_, err := empty.MarshalBinary()
		require.ErrorIs(t, err, ErrMalformedStatement)

		_, err = tc.system.Verify(empty.Statement(), empty)
		require.ErrorIs(t, err, ErrMalformedStatement)
	})
}

func TestErrors(t *testing.T) {

	tc := newToyContext(t, 0)
	Q := tc.params.Q()

	pt, ct2, _ := tc.encrypt(t, 2)
	_, ct3, _ := tc.encrypt(t, 3)

	sum, err := tc.eval.Add(ct2, ct3)
	require.NoError(t, err)

	rec := bfv.NewAddRecord(ct2, ct3, sum)
	proof := tc.prove(t, rec, Secrets{})

	t.Run("MissingSecret", func(t *testing.T) {
		_, err := tc.system.GenerateWitness(bfv.NewEncryptRecord(tc.pk, pt, ct2), Secrets{})
		require.ErrorIs(t, err, ErrMissingSecret)
		_, err = tc.system.GenerateWitness(bfv.NewDecryptRecord(tc.pk, ct2, pt), Secrets{})
		require.ErrorIs(t, err, ErrMissingSecret)
	})

	t.Run("Unsatisfied", func(t *testing.T) {
		wrong := sum.CopyNew()
		wrong.Value[1].Coeffs[2] = (wrong.Value[1].Coeffs[2] + 1) % Q
		_, err := tc.system.GenerateWitness(bfv.NewAddRecord(ct2, ct3, wrong), Secrets{})
		require.ErrorIs(t, err, ErrUnsatisfied)

		// 3 does not decrypt to 2.
		bad, err := tc.ecd.Encode([]uint64{3})
		require.NoError(t, err)
		_, err = tc.system.GenerateWitness(bfv.NewDecryptRecord(tc.pk, ct2, bad), Secrets{SecretKey: tc.sk})
		require.ErrorIs(t, err, ErrUnsatisfied)
	})

	t.Run("ShapeMismatch", func(t *testing.T) {
		prod, err := tc.eval.Mul(ct2, ct3)
		require.NoError(t, err)
		_, err = tc.system.Arithmetize(bfv.NewMulRecord(ct2, ct3, sum))
		require.ErrorIs(t, err, ErrShapeMismatch)
		_, err = tc.system.GenerateWitness(bfv.NewAddRecord(ct2, prod, sum), Secrets{})
		require.ErrorIs(t, err, ErrShapeMismatch)

		c, err := tc.system.Arithmetize(bfv.NewMulRecord(ct2, ct3, prod))
		require.NoError(t, err)
		w, err := tc.system.GenerateWitness(rec, Secrets{})
		require.NoError(t, err)
		_, err = tc.system.Prove(c, w)
		require.ErrorIs(t, err, ErrShapeMismatch)
	})

	t.Run("MalformedStatement", func(t *testing.T) {

		stmt := proof.Statement()
		stmt.Inputs[0].Value[0].Coeffs[0] = Q
		_, err := tc.system.Verify(stmt, proof)
		require.ErrorIs(t, err, ErrMalformedStatement)

		stmt = proof.Statement()
		stmt.Kind = bfv.OpMultiply
		_, err = tc.system.Verify(stmt, proof)
		require.ErrorIs(t, err, ErrShapeMismatch)

		other := *proof
		other.ParametersDigest[0] ^= 1
		_, err = tc.system.Verify(proof.Statement(), &other)
		require.ErrorIs(t, err, ErrMalformedStatement)

		_, err = tc.system.Verify(nil, proof)
		require.ErrorIs(t, err, ErrMalformedStatement)

		enc, err := NewStatement(bfv.NewEncryptRecord(tc.pk, pt, ct2))
		require.NoError(t, err)
		require.Nil(t, enc.Plaintext)
		enc.Plaintext = pt
		require.ErrorIs(t, enc.Check(tc.params), ErrMalformedStatement)
	})

	t.Run("UnsupportedKind", func(t *testing.T) {
		_, err := tc.system.ExportVerifyingKey(bfv.OperationKind(42), 1)
		require.ErrorIs(t, err, ErrUnsupportedKind)
		_, err = tc.system.ExportVerifyingKey(bfv.OpMultiply, 2)
		require.ErrorIs(t, err, ErrShapeMismatch)
	})
}

func TestNegacyclicProduct(t *testing.T) {

	for _, pl := range []bfv.ParametersLiteral{bfv.PN2Q17, bfv.PN6QP26} {

		params, err := bfv.NewParametersFromLiteral(pl)
		require.NoError(t, err)

		t.Run(testString("IntPoly/Mul", params), func(t *testing.T) {

			cfg, err := newConfig(params)
			require.NoError(t, err)

			N := params.N()
			half := int64(params.Q() >> 1)

			a, b := newIntPoly(N), newIntPoly(N)
			for i := 0; i < N; i++ {
				a[i].SetInt64((int64(i)*7919)%(2*half+1) - half)
				b[i].SetInt64(half - (int64(i*i)*104729)%(2*half+1))
			}

			want := newIntPoly(N)
			for i := 0; i < N; i++ {
				for j := 0; j < N; j++ {
					prod := new(big.Int).Mul(a[i], b[j])
					if i+j < N {
						want[i+j].Add(want[i+j], prod)
					} else {
						want[i+j-N].Sub(want[i+j-N], prod)
					}
				}
			}

			have := cfg.mul(a, b)
			for i := range want {
				require.Zero(t, want[i].Cmp(have[i]), "coefficient %d", i)
			}
		})
	}
}
