package fs

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cyverse/go-irodsgrid/irods/connection"
	"github.com/cyverse/go-irodsgrid/irods/message"
	"github.com/cyverse/go-irodsgrid/irods/types"
)

const (
	queryMaxRows int = 500
)

// parseCatalogueTime parses a catalogue timestamp (unix seconds, decimal)
func parseCatalogueTime(value string) time.Time {
	seconds, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}
	}

	return time.Unix(seconds, 0)
}

// statCollection queries the catalogue for a collection by its path
func statCollection(conn *connection.IRODSConnection, path string) (*types.IRODSEntry, error) {
	query := message.NewIRODSMessageQueryRequest(queryMaxRows, 0)
	query.AddSelect(message.ICAT_COLUMN_COLL_ID)
	query.AddSelect(message.ICAT_COLUMN_COLL_OWNER_NAME)
	query.AddSelect(message.ICAT_COLUMN_COLL_CREATE_TIME)
	query.AddSelect(message.ICAT_COLUMN_COLL_MODIFY_TIME)
	query.AddCondition(message.ICAT_COLUMN_COLL_NAME, fmt.Sprintf("= '%s'", path))

	response := message.IRODSMessageQueryResponse{}
	err := conn.Request(query, &response)
	if err != nil {
		if types.IsFileNotFoundError(err) {
			return nil, types.NewFileNotFoundError(path)
		}
		return nil, err
	}

	if response.RowCount == 0 {
		return nil, types.NewFileNotFoundError(path)
	}

	entry := &types.IRODSEntry{
		Type: types.ObjectTypeCollection,
		Path: path,
		Name: NewIRODSPath(path, "/").Name(),
	}

	if value, ok := response.GetValue(message.ICAT_COLUMN_COLL_ID, 0); ok {
		entry.ID, _ = strconv.ParseInt(value, 10, 64)
	}
	if value, ok := response.GetValue(message.ICAT_COLUMN_COLL_OWNER_NAME, 0); ok {
		entry.Owner = value
	}
	if value, ok := response.GetValue(message.ICAT_COLUMN_COLL_CREATE_TIME, 0); ok {
		entry.CreateTime = parseCatalogueTime(value)
	}
	if value, ok := response.GetValue(message.ICAT_COLUMN_COLL_MODIFY_TIME, 0); ok {
		entry.ModifyTime = parseCatalogueTime(value)
	}

	return entry, nil
}

// statDataObject queries the catalogue for a data object by collection and
// name
func statDataObject(conn *connection.IRODSConnection, path string) (*types.IRODSEntry, error) {
	dir, name := SplitIRODSPath(path)

	query := message.NewIRODSMessageQueryRequest(queryMaxRows, 0)
	query.AddSelect(message.ICAT_COLUMN_D_DATA_ID)
	query.AddSelect(message.ICAT_COLUMN_DATA_SIZE)
	query.AddSelect(message.ICAT_COLUMN_D_RESC_NAME)
	query.AddSelect(message.ICAT_COLUMN_D_OWNER_NAME)
	query.AddSelect(message.ICAT_COLUMN_D_DATA_CHECKSUM)
	query.AddSelect(message.ICAT_COLUMN_D_CREATE_TIME)
	query.AddSelect(message.ICAT_COLUMN_D_MODIFY_TIME)
	query.AddCondition(message.ICAT_COLUMN_COLL_NAME, fmt.Sprintf("= '%s'", dir))
	query.AddCondition(message.ICAT_COLUMN_DATA_NAME, fmt.Sprintf("= '%s'", name))

	response := message.IRODSMessageQueryResponse{}
	err := conn.Request(query, &response)
	if err != nil {
		if types.IsFileNotFoundError(err) {
			return nil, types.NewFileNotFoundError(path)
		}
		return nil, err
	}

	if response.RowCount == 0 {
		return nil, types.NewFileNotFoundError(path)
	}

	entry := &types.IRODSEntry{
		Type: types.ObjectTypeDataObject,
		Path: path,
		Name: name,
	}

	if value, ok := response.GetValue(message.ICAT_COLUMN_D_DATA_ID, 0); ok {
		entry.ID, _ = strconv.ParseInt(value, 10, 64)
	}
	if value, ok := response.GetValue(message.ICAT_COLUMN_DATA_SIZE, 0); ok {
		entry.Size, _ = strconv.ParseInt(value, 10, 64)
	}
	if value, ok := response.GetValue(message.ICAT_COLUMN_D_RESC_NAME, 0); ok {
		entry.Resource = value
	}
	if value, ok := response.GetValue(message.ICAT_COLUMN_D_OWNER_NAME, 0); ok {
		entry.Owner = value
	}
	if value, ok := response.GetValue(message.ICAT_COLUMN_D_DATA_CHECKSUM, 0); ok {
		entry.Checksum = value
	}
	if value, ok := response.GetValue(message.ICAT_COLUMN_D_CREATE_TIME, 0); ok {
		entry.CreateTime = parseCatalogueTime(value)
	}
	if value, ok := response.GetValue(message.ICAT_COLUMN_D_MODIFY_TIME, 0); ok {
		entry.ModifyTime = parseCatalogueTime(value)
	}

	return entry, nil
}

// listSubCollections lists the collections directly under a collection
func listSubCollections(conn *connection.IRODSConnection, path string) ([]*types.IRODSEntry, error) {
	entries := []*types.IRODSEntry{}
	continueIndex := 0

	for {
		query := message.NewIRODSMessageQueryRequest(queryMaxRows, continueIndex)
		query.AddSelect(message.ICAT_COLUMN_COLL_ID)
		query.AddSelect(message.ICAT_COLUMN_COLL_NAME)
		query.AddSelect(message.ICAT_COLUMN_COLL_OWNER_NAME)
		query.AddSelect(message.ICAT_COLUMN_COLL_CREATE_TIME)
		query.AddSelect(message.ICAT_COLUMN_COLL_MODIFY_TIME)
		query.AddCondition(message.ICAT_COLUMN_COLL_PARENT_NAME, fmt.Sprintf("= '%s'", path))

		response := message.IRODSMessageQueryResponse{}
		err := conn.Request(query, &response)
		if err != nil {
			if types.IsFileNotFoundError(err) {
				// no sub collections
				return entries, nil
			}
			return nil, err
		}

		for row := 0; row < response.RowCount; row++ {
			collPath, ok := response.GetValue(message.ICAT_COLUMN_COLL_NAME, row)
			if !ok {
				return nil, types.NewWireFormatError("collection listing row without a path")
			}

			entry := &types.IRODSEntry{
				Type: types.ObjectTypeCollection,
				Path: collPath,
				Name: NewIRODSPath(collPath, "/").Name(),
			}

			if value, ok := response.GetValue(message.ICAT_COLUMN_COLL_ID, row); ok {
				entry.ID, _ = strconv.ParseInt(value, 10, 64)
			}
			if value, ok := response.GetValue(message.ICAT_COLUMN_COLL_OWNER_NAME, row); ok {
				entry.Owner = value
			}
			if value, ok := response.GetValue(message.ICAT_COLUMN_COLL_CREATE_TIME, row); ok {
				entry.CreateTime = parseCatalogueTime(value)
			}
			if value, ok := response.GetValue(message.ICAT_COLUMN_COLL_MODIFY_TIME, row); ok {
				entry.ModifyTime = parseCatalogueTime(value)
			}

			entries = append(entries, entry)
		}

		continueIndex = response.ContinueIndex
		if continueIndex <= 0 {
			break
		}
	}

	return entries, nil
}

// listDataObjects lists the data objects directly under a collection
func listDataObjects(conn *connection.IRODSConnection, path string) ([]*types.IRODSEntry, error) {
	entries := []*types.IRODSEntry{}
	continueIndex := 0

	for {
		query := message.NewIRODSMessageQueryRequest(queryMaxRows, continueIndex)
		query.AddSelect(message.ICAT_COLUMN_D_DATA_ID)
		query.AddSelect(message.ICAT_COLUMN_DATA_NAME)
		query.AddSelect(message.ICAT_COLUMN_DATA_SIZE)
		query.AddSelect(message.ICAT_COLUMN_D_RESC_NAME)
		query.AddSelect(message.ICAT_COLUMN_D_OWNER_NAME)
		query.AddSelect(message.ICAT_COLUMN_D_DATA_CHECKSUM)
		query.AddSelect(message.ICAT_COLUMN_D_CREATE_TIME)
		query.AddSelect(message.ICAT_COLUMN_D_MODIFY_TIME)
		query.AddCondition(message.ICAT_COLUMN_COLL_NAME, fmt.Sprintf("= '%s'", path))

		response := message.IRODSMessageQueryResponse{}
		err := conn.Request(query, &response)
		if err != nil {
			if types.IsFileNotFoundError(err) {
				// empty collection
				return entries, nil
			}
			return nil, err
		}

		for row := 0; row < response.RowCount; row++ {
			name, ok := response.GetValue(message.ICAT_COLUMN_DATA_NAME, row)
			if !ok {
				return nil, types.NewWireFormatError("data object listing row without a name")
			}

			entry := &types.IRODSEntry{
				Type: types.ObjectTypeDataObject,
				Path: path + "/" + name,
				Name: name,
			}

			if value, ok := response.GetValue(message.ICAT_COLUMN_D_DATA_ID, row); ok {
				entry.ID, _ = strconv.ParseInt(value, 10, 64)
			}
			if value, ok := response.GetValue(message.ICAT_COLUMN_DATA_SIZE, row); ok {
				entry.Size, _ = strconv.ParseInt(value, 10, 64)
			}
			if value, ok := response.GetValue(message.ICAT_COLUMN_D_RESC_NAME, row); ok {
				entry.Resource = value
			}
			if value, ok := response.GetValue(message.ICAT_COLUMN_D_OWNER_NAME, row); ok {
				entry.Owner = value
			}
			if value, ok := response.GetValue(message.ICAT_COLUMN_D_DATA_CHECKSUM, row); ok {
				entry.Checksum = value
			}
			if value, ok := response.GetValue(message.ICAT_COLUMN_D_CREATE_TIME, row); ok {
				entry.CreateTime = parseCatalogueTime(value)
			}
			if value, ok := response.GetValue(message.ICAT_COLUMN_D_MODIFY_TIME, row); ok {
				entry.ModifyTime = parseCatalogueTime(value)
			}

			entries = append(entries, entry)
		}

		continueIndex = response.ContinueIndex
		if continueIndex <= 0 {
			break
		}
	}

	return entries, nil
}
