package fuel

// fuelAsyncTask is the executor's internal bookkeeping for one spawned
// task. Go's interfaces already erase the concrete future type, so no
// further indirection is needed beyond the bounded task table the task
// lives in.
type fuelAsyncTask struct {
	id            TaskID
	componentID   ComponentID
	priority      Priority
	future        Future
	state         AsyncTaskState
	failureReason FailureReason
	fuelBudget    Fuel
	fuelConsumed  Fuel
	deadline      *uint64
}

func (t *fuelAsyncTask) status() TaskStatus {
	return TaskStatus{
		ID:            t.id,
		ComponentID:   t.componentID,
		Priority:      t.priority,
		State:         t.state,
		FailureReason: t.failureReason,
		FuelBudget:    t.fuelBudget,
		FuelConsumed:  t.fuelConsumed,
		Deadline:      t.deadline,
	}
}

// chargeFuel records cost against the task's own budget and reports
// whether the budget is now exhausted. A zero cost (verification Off)
// never exhausts, even against a zero budget.
func (t *fuelAsyncTask) chargeFuel(cost Fuel) (exhausted bool) {
	if cost == 0 {
		return false
	}
	t.fuelConsumed += cost
	return t.fuelConsumed >= t.fuelBudget
}

func (t *fuelAsyncTask) remainingFuel() Fuel {
	if t.fuelConsumed >= t.fuelBudget {
		return 0
	}
	return t.fuelBudget - t.fuelConsumed
}
