package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plyght/ora-plyght/internal/database/repository"
	"github.com/plyght/ora-plyght/internal/tabtree"
	"github.com/plyght/ora-plyght/internal/testdata"
)

func TestDoctorReportsRecoveredProblems(t *testing.T) {
	t.Parallel()
	f := newFixture(t,
		tab("R", 1, ""),
		tab("A", 2, "B"), tab("B", 3, "A"),
		tab("O", 4, "gone"),
		tab("K1", 1, "R"), tab("K2", 1, "R"),
	)

	svc := &MaintenanceService{DB: f.db}
	findings, err := svc.Doctor(f.ctx)
	require.NoError(t, err)

	count := func(target error) int {
		n := 0
		for _, fd := range findings {
			if errors.Is(fd, target) {
				n++
				require.Equal(t, "c1", fd.ContainerID)
			}
		}
		return n
	}
	require.Equal(t, 1, count(tabtree.ErrOrphanReference))
	require.GreaterOrEqual(t, count(tabtree.ErrCycleDetected), 1)
	require.Equal(t, 1, count(tabtree.ErrOrderCollision))
}

func TestDoctorIgnoresParentInOtherSection(t *testing.T) {
	t.Parallel()
	f := newFixture(t, tab("A", 1, ""), tab("C", 1, "A"))

	_, err := f.mgr.TogglePin(f.ctx, "A")
	require.NoError(t, err)
	require.Equal(t, []string{"C"}, rowIDs(f.mgr.Rows("c1", tabtree.SectionNormal)))

	svc := &MaintenanceService{DB: f.db}
	findings, err := svc.Doctor(f.ctx)
	require.NoError(t, err)
	require.Empty(t, findings)
}

func TestResetClearsEverything(t *testing.T) {
	t.Parallel()
	f := newFixture(t, tab("A", 1, ""))

	require.NoError(t, testdata.Seed(f.ctx, testdata.Repos{
		Containers: repository.NewContainerRepo(f.db),
		Tabs:       repository.NewTabRepo(f.db),
	}))
	require.NoError(t, f.mgr.Refresh(f.ctx))
	require.Len(t, f.mgr.Containers(), 4)
	require.Greater(t, f.mgr.Snapshot().Len(), 10)

	svc := &MaintenanceService{DB: f.db}
	findings, err := svc.Doctor(f.ctx)
	require.NoError(t, err)
	require.Empty(t, findings)

	require.NoError(t, svc.Reset(f.ctx))
	require.NoError(t, f.mgr.Refresh(f.ctx))
	require.Empty(t, f.mgr.Containers())
	require.Zero(t, f.mgr.Snapshot().Len())
}
