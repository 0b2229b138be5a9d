package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/directory/adapters/memory"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/directory/domain"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/directory/ports"
	"github.com/Apurer/go-gin-meal-orders/internal/shared/identity"
)

type countingDirectory struct {
	ports.Directory
	employeeCalls int
}

func (c *countingDirectory) Employee(ctx context.Context, id int64) (*domain.Employee, error) {
	c.employeeCalls++
	return c.Directory.Employee(ctx, id)
}

func seededDirectory(t *testing.T) *memory.Directory {
	t.Helper()
	ctx := context.Background()
	dir := memory.NewDirectory()
	dept := int64(7)
	require.NoError(t, dir.SaveDepartment(ctx, domain.Department{ID: dept, Name: "Production"}))
	require.NoError(t, dir.SaveEmployee(ctx, domain.Employee{ID: 100, NIK: "EMP-100", Name: "Rina", DepartmentID: &dept, Role: identity.RoleEmployee, Active: true}))
	require.NoError(t, dir.SaveShift(ctx, domain.Shift{ID: 1, Name: "Shift 1", Start: 7 * time.Hour, End: 15 * time.Hour}))
	return dir
}

func unreachableClient(t *testing.T) *goredis.Client {
	t.Helper()
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestDirectoryFallsThroughWhenRedisIsDown(t *testing.T) {
	inner := &countingDirectory{Directory: seededDirectory(t)}
	cache := NewDirectory(inner, unreachableClient(t))
	ctx := context.Background()

	employee, err := cache.Employee(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "EMP-100", employee.NIK)
	require.NotNil(t, employee.DepartmentID)
	assert.Equal(t, int64(7), *employee.DepartmentID)

	_, err = cache.Employee(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.employeeCalls)

	shift, err := cache.Shift(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 7*time.Hour, shift.Start)

	department, err := cache.Department(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Production", department.Name)
}

func TestDirectoryPropagatesNotFound(t *testing.T) {
	cache := NewDirectory(seededDirectory(t), unreachableClient(t))
	ctx := context.Background()

	_, err := cache.Employee(ctx, 999)
	assert.ErrorIs(t, err, ports.ErrEmployeeNotFound)
	_, err = cache.Shift(ctx, 999)
	assert.ErrorIs(t, err, ports.ErrShiftNotFound)
	_, err = cache.Department(ctx, 999)
	assert.ErrorIs(t, err, ports.ErrDepartmentNotFound)
}

func TestWithTTLIgnoresNonPositive(t *testing.T) {
	cache := NewDirectory(seededDirectory(t), unreachableClient(t), WithTTL(0))
	assert.Equal(t, DefaultTTL, cache.ttl)

	cache = NewDirectory(seededDirectory(t), unreachableClient(t), WithTTL(time.Minute))
	assert.Equal(t, time.Minute, cache.ttl)
}
