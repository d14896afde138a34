package storage

import (
	"fmt"

	"github.com/x402-demos/agent-launchpad/core"
)

// AgentStore persists AgentSpec records keyed by id. Records are written
// wholesale; there are no partial-field updates.
type AgentStore struct {
	db *DBStorage
}

func NewAgentStore(db *DBStorage) *AgentStore {
	return &AgentStore{db: db}
}

func agentKey(id string) string {
	return fmt.Sprintf("agent:%s", id)
}

// Save writes the spec under its id.
func (s *AgentStore) Save(agent core.AgentSpec) error {
	if agent.ID == "" {
		return fmt.Errorf("agent id must not be empty")
	}
	return s.db.PutObject(agentKey(agent.ID), agent)
}

// Get loads a spec by id. The second return value reports whether the agent
// exists.
func (s *AgentStore) Get(id string) (core.AgentSpec, bool, error) {
	var agent core.AgentSpec
	err := s.db.GetObject(agentKey(id), &agent)
	if err == ErrKeyNotFound {
		return core.AgentSpec{}, false, nil
	}
	if err != nil {
		return core.AgentSpec{}, false, err
	}
	return agent, true, nil
}

// List returns all stored agents in unspecified order.
func (s *AgentStore) List() ([]core.AgentSpec, error) {
	raw, err := s.db.GetByPrefix("agent:")
	if err != nil {
		return nil, err
	}
	agents := make([]core.AgentSpec, 0, len(raw))
	for key, data := range raw {
		var agent core.AgentSpec
		if err := unmarshalValue(data, &agent); err != nil {
			return nil, fmt.Errorf("corrupt agent record %s: %v", key, err)
		}
		agents = append(agents, agent)
	}
	return agents, nil
}
