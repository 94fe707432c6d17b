package budget

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wrtcore/fuelrt/errs"
)

func TestDynamicCapability_Verify(t *testing.T) {
	cap := NewDynamicCapability(1024, Basic)

	require.NoError(t, cap.Verify(AllocateOp(1024)))
	require.Error(t, cap.Verify(AllocateOp(1025)))
	require.Error(t, cap.Verify(AllocateOp(0))) // zero-size under Basic+

	require.NoError(t, cap.Verify(ReadOp(0, 1024)))
	require.Error(t, cap.Verify(WriteOp(1000, 100)))
	require.NoError(t, cap.Verify(CopyOp(0, 512, 512)))
	require.Error(t, cap.Verify(CopyOp(0, 600, 512)))
	require.NoError(t, cap.Verify(DeallocateOp()))
}

func TestDynamicCapability_ZeroSizeAllowedUnderOff(t *testing.T) {
	cap := NewDynamicCapability(1024, Off)
	require.NoError(t, cap.Verify(AllocateOp(0)))
}

func TestStaticCapability_CloneIsIndependent(t *testing.T) {
	cap := NewStaticCapability(4096, Standard)
	clone := cap.CloneCapability()

	require.Equal(t, cap.MaxAllocationSize(), clone.MaxAllocationSize())
	require.Equal(t, Standard, clone.VerificationLevel())

	cap.N = 8192
	require.Equal(t, uint64(4096), clone.MaxAllocationSize())
}

func TestVerifiedCapability_RequiresProofs(t *testing.T) {
	bare := &VerifiedCapability{N: 1024, Level: Redundant}
	err := bare.Verify(AllocateOp(16))
	require.Error(t, err)
	var coded *errs.CodedError
	require.ErrorAs(t, err, &coded)
	require.Equal(t, errs.CodeSafetyViolation, coded.Code)

	proved := NewVerifiedCapability(1024, []string{"wcet-bound", "stack-depth"})
	require.NoError(t, proved.Verify(AllocateOp(16)))
	require.Equal(t, Redundant, proved.VerificationLevel())
}

func TestVerifiedCapability_CloneCopiesProofs(t *testing.T) {
	cap := NewVerifiedCapability(512, []string{"p1"})
	clone := cap.CloneCapability().(*VerifiedCapability)

	clone.Proofs[0] = "tampered"
	require.Equal(t, "p1", cap.Proofs[0])
}

func TestVerificationLevel_MultiplierTable(t *testing.T) {
	want := map[VerificationLevel]uint64{
		Off: 0, Basic: 1, Sampling: 2, Standard: 4, Full: 8, Redundant: 16,
	}
	for level, m := range want {
		require.Equal(t, m, level.Multiplier(), level.String())
	}
}

func TestSafetyLevel_Equivalents(t *testing.T) {
	require.Equal(t, "DAL-A", ASILD.DALEquivalent())
	require.Equal(t, "DAL-E", QM.DALEquivalent())
	require.Equal(t, 4, ASILD.SILEquivalent())
	require.Equal(t, 0, QM.SILEquivalent())
	require.True(t, QM < ASILA && ASILA < ASILB && ASILB < ASILC && ASILC < ASILD)
}
