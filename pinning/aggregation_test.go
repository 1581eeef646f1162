package pinning

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ruteri/pinning-aggregation/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPinningAggregation_AllMustSucceed(t *testing.T) {
	testErr := errors.New("test error")
	c := mustCid(t, testCidV0)

	operations := []struct {
		name   string
		method string
		args   []interface{}
		call   func(a *PinningAggregation) error
	}{
		{
			name:   "open",
			method: "Open",
			args:   []interface{}{mock.Anything},
			call:   func(a *PinningAggregation) error { return a.Open(context.Background()) },
		},
		{
			name:   "close",
			method: "Close",
			args:   []interface{}{mock.Anything},
			call:   func(a *PinningAggregation) error { return a.Close(context.Background()) },
		},
		{
			name:   "pin",
			method: "Pin",
			args:   []interface{}{mock.Anything, c},
			call:   func(a *PinningAggregation) error { return a.Pin(context.Background(), c) },
		},
	}

	tests := []struct {
		name          string
		results       []error
		expectedError bool
	}{
		{
			name:          "all backends succeed",
			results:       []error{nil, nil, nil},
			expectedError: false,
		},
		{
			name:          "one backend fails",
			results:       []error{nil, testErr, nil},
			expectedError: true,
		},
		{
			name:          "all backends fail",
			results:       []error{testErr, testErr},
			expectedError: true,
		},
		{
			name:          "no backends",
			results:       []error{},
			expectedError: false,
		},
	}

	for _, op := range operations {
		for _, tt := range tests {
			t.Run(op.name+"/"+tt.name, func(t *testing.T) {
				var mocks []*MockPinning
				for i, result := range tt.results {
					m := &MockPinning{id: fmt.Sprintf("mock@%d", i)}
					m.On(op.method, op.args...).Return(result).Once()
					mocks = append(mocks, m)
				}

				aggregation := NewPinningAggregation(toBackends(mocks), testLogger())
				err := op.call(aggregation)

				if tt.expectedError {
					assert.ErrorIs(t, err, testErr)
				} else {
					assert.NoError(t, err)
				}

				// Every backend is dispatched to, even when a sibling fails
				for _, m := range mocks {
					m.AssertExpectations(t)
				}
			})
		}
	}
}

func TestPinningAggregation_OpenPropagatesMissingCollaborator(t *testing.T) {
	ok := &MockPinning{id: "ok@1"}
	ok.On("Open", mock.Anything).Return(nil)
	missing := &MockPinning{id: "ipfs@1"}
	missing.On("Open", mock.Anything).Return(interfaces.ErrNoIpfsInstance)

	aggregation := NewPinningAggregation([]interfaces.Pinning{ok, missing}, testLogger())
	err := aggregation.Open(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, interfaces.ErrNoIpfsInstance)
	assert.Contains(t, err.Error(), "ipfs@1")
}

func TestPinningAggregation_Unpin(t *testing.T) {
	testErr := errors.New("test error")
	c := mustCid(t, testCidV0)

	tests := []struct {
		name    string
		results []error
	}{
		{name: "no failures", results: []error{nil, nil, nil}},
		{name: "some failures", results: []error{testErr, nil, testErr}},
		{name: "all failures", results: []error{testErr, testErr, testErr}},
		{name: "no backends", results: []error{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mocks []*MockPinning
			for i, result := range tt.results {
				m := &MockPinning{id: fmt.Sprintf("mock@%d", i)}
				m.On("Unpin", mock.Anything, c).Return(result).Once()
				mocks = append(mocks, m)
			}

			aggregation := NewPinningAggregation(toBackends(mocks), testLogger())
			err := aggregation.Unpin(context.Background(), c)

			assert.NoError(t, err)
			for _, m := range mocks {
				m.AssertExpectations(t)
			}
		})
	}
}

func TestPinningAggregation_Ls(t *testing.T) {
	tests := []struct {
		name     string
		lists    []interfaces.CidList
		expected interfaces.CidList
	}{
		{
			name: "union of keys, concatenation of ids",
			lists: []interfaces.CidList{
				{"x": {"a"}},
				{"x": {"b"}, "y": {"b"}},
			},
			expected: interfaces.CidList{
				"x": {"a", "b"},
				"y": {"b"},
			},
		},
		{
			name: "same CID on ipfs and powergate",
			lists: []interfaces.CidList{
				{"Qm123": {"ipfs"}},
				{"Qm123": {"powergate"}},
			},
			expected: interfaces.CidList{
				"Qm123": {"ipfs", "powergate"},
			},
		},
		{
			name: "repeated ids are kept",
			lists: []interfaces.CidList{
				{"x": {"ipfs"}},
				{"x": {"ipfs"}},
			},
			expected: interfaces.CidList{
				"x": {"ipfs", "ipfs"},
			},
		},
		{
			name: "backend order is preserved",
			lists: []interfaces.CidList{
				{},
				{"x": {"c"}},
				{"x": {"a"}},
			},
			expected: interfaces.CidList{
				"x": {"c", "a"},
			},
		},
		{
			name:     "nothing pinned",
			lists:    []interfaces.CidList{{}, {}},
			expected: interfaces.CidList{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mocks []*MockPinning
			for i, list := range tt.lists {
				m := &MockPinning{id: fmt.Sprintf("mock@%d", i)}
				m.On("Ls", mock.Anything).Return(list, nil)
				mocks = append(mocks, m)
			}

			aggregation := NewPinningAggregation(toBackends(mocks), testLogger())
			result, err := aggregation.Ls(context.Background())

			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestPinningAggregation_LsFailure(t *testing.T) {
	testErr := errors.New("test error")

	ok := &MockPinning{id: "mock@0"}
	ok.On("Ls", mock.Anything).Return(interfaces.CidList{"x": {"mock@0"}}, nil)
	failing := &MockPinning{id: "mock@1"}
	failing.On("Ls", mock.Anything).Return(nil, testErr)

	aggregation := NewPinningAggregation([]interfaces.Pinning{ok, failing}, testLogger())
	result, err := aggregation.Ls(context.Background())

	assert.ErrorIs(t, err, testErr)
	assert.Nil(t, result)
}

func TestPinningAggregation_Info(t *testing.T) {
	t.Run("shallow merge", func(t *testing.T) {
		a := &MockPinning{id: "idA"}
		a.On("Info", mock.Anything).Return(interfaces.PinningInfo{"idA": map[string]any{}}, nil)
		b := &MockPinning{id: "idB"}
		b.On("Info", mock.Anything).Return(interfaces.PinningInfo{"idB": map[string]any{}}, nil)

		aggregation := NewPinningAggregation([]interfaces.Pinning{a, b}, testLogger())
		info, err := aggregation.Info(context.Background())

		require.NoError(t, err)
		assert.Equal(t, interfaces.PinningInfo{
			"idA": map[string]any{},
			"idB": map[string]any{},
		}, info)
	})

	t.Run("later backends overwrite", func(t *testing.T) {
		a := &MockPinning{id: "id"}
		a.On("Info", mock.Anything).Return(interfaces.PinningInfo{"id": "first"}, nil)
		b := &MockPinning{id: "id"}
		b.On("Info", mock.Anything).Return(interfaces.PinningInfo{"id": "second"}, nil)

		aggregation := NewPinningAggregation([]interfaces.Pinning{a, b}, testLogger())
		info, err := aggregation.Info(context.Background())

		require.NoError(t, err)
		assert.Equal(t, interfaces.PinningInfo{"id": "second"}, info)
	})

	t.Run("failure propagates", func(t *testing.T) {
		testErr := errors.New("test error")
		a := &MockPinning{id: "idA"}
		a.On("Info", mock.Anything).Return(nil, testErr)

		aggregation := NewPinningAggregation([]interfaces.Pinning{a}, testLogger())
		_, err := aggregation.Info(context.Background())

		assert.ErrorIs(t, err, testErr)
	})
}

func TestPinningAggregation_ID(t *testing.T) {
	a := &MockPinning{id: "ipfs@a"}
	b := &MockPinning{id: "s3@b"}

	first := NewPinningAggregation([]interfaces.Pinning{a, b}, testLogger())
	second := NewPinningAggregation([]interfaces.Pinning{a, b}, testLogger())
	reordered := NewPinningAggregation([]interfaces.Pinning{b, a}, testLogger())

	assert.Equal(t, first.ID(), second.ID())
	assert.NotEqual(t, first.ID(), reordered.ID())
	assert.Equal(t, AggregationID([]string{"ipfs@a", "s3@b"}), first.ID())
	assert.Regexp(t, `^pinning-aggregation@[A-Za-z0-9_-]{43}=$`, first.ID())
}

func TestPinningAggregation_BackendsAreFixed(t *testing.T) {
	backends := []interfaces.Pinning{&MockPinning{id: "a"}, &MockPinning{id: "b"}}
	aggregation := NewPinningAggregation(backends, testLogger())

	backends[0] = &MockPinning{id: "replaced"}
	returned := aggregation.Backends()
	returned[1] = &MockPinning{id: "replaced"}

	got := aggregation.Backends()
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID())
	assert.Equal(t, "b", got[1].ID())
}
