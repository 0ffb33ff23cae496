// Copyright (c) 2016-2019 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package core

// TorrentStatus is the engine-supplied snapshot of a single torrent's
// observable state. InfoHash is its stable identity; every other field is
// tracked pointwise by history so that per-field change frames can be
// reported to polling clients.
//
// The field set mirrors the original C++ torrent_history_entry::update_status
// CMP_SET list: every field listed there has a matching field here, in the
// same order, so TrackedFields below stays a faithful 1:1 translation.
type TorrentStatus struct {
	InfoHash InfoHash

	State              int
	Paused             bool
	AutoManaged        bool
	SequentialDownload bool
	IsSeeding          bool
	IsFinished         bool
	IsLoaded           bool
	HasMetadata        bool
	Progress           float32
	ProgressPPM        int
	Error              string
	SavePath           string
	Name               string
	NextAnnounce       int64
	CurrentTracker     string

	TotalDownload           int64
	TotalUpload             int64
	TotalPayloadDownload    int64
	TotalPayloadUpload      int64
	TotalFailedBytes        int64
	TotalRedundantBytes     int64
	DownloadRate            int64
	UploadRate              int64
	DownloadPayloadRate     int64
	UploadPayloadRate       int64
	NumSeeds                int
	NumPeers                int
	NumComplete             int
	NumIncomplete           int
	ListSeeds               int
	ListPeers               int
	ConnectCandidates       int
	NumPieces               int
	TotalDone               int64
	TotalWantedDone         int64
	TotalWanted             int64
	DistributedFullCopies   int
	DistributedFraction     int
	DistributedCopies       float32
	BlockSize               int
	NumUploads              int
	NumConnections          int
	UploadsLimit            int
	ConnectionsLimit        int
	StorageMode             int
	UpBandwidthQueue        int
	DownBandwidthQueue      int
	AllTimeUpload           int64
	AllTimeDownload         int64
	ActiveTime              int64
	FinishedTime            int64
	SeedingTime             int64
	SeedRank                int
	LastScrape              int64
	HasIncoming             bool
	SparseRegions           int
	SeedMode                bool
	UploadMode              bool
	ShareMode               bool
	SuperSeeding            bool
	Priority                int
	AddedTime               int64
	CompletedTime           int64
	LastSeenComplete        int64
	TimeSinceUpload         int64
	TimeSinceDownload       int64
	QueuePosition           int
	NeedSaveResume          bool
	IPFilterApplies         bool
}

// TrackedField identifies one of TorrentStatus's change-tracked fields by
// position. History keeps one frame-stamp per TrackedField, not per
// TorrentStatus instance.
type TrackedField int

// The full tracked field set, in the same order as the C++ CMP_SET macro
// invocations in torrent_history_entry::update_status.
const (
	FieldState TrackedField = iota
	FieldPaused
	FieldAutoManaged
	FieldSequentialDownload
	FieldIsSeeding
	FieldIsFinished
	FieldIsLoaded
	FieldHasMetadata
	FieldProgress
	FieldProgressPPM
	FieldError
	FieldSavePath
	FieldName
	FieldNextAnnounce
	FieldCurrentTracker
	FieldTotalDownload
	FieldTotalUpload
	FieldTotalPayloadDownload
	FieldTotalPayloadUpload
	FieldTotalFailedBytes
	FieldTotalRedundantBytes
	FieldDownloadRate
	FieldUploadRate
	FieldDownloadPayloadRate
	FieldUploadPayloadRate
	FieldNumSeeds
	FieldNumPeers
	FieldNumComplete
	FieldNumIncomplete
	FieldListSeeds
	FieldListPeers
	FieldConnectCandidates
	FieldNumPieces
	FieldTotalDone
	FieldTotalWantedDone
	FieldTotalWanted
	FieldDistributedFullCopies
	FieldDistributedFraction
	FieldDistributedCopies
	FieldBlockSize
	FieldNumUploads
	FieldNumConnections
	FieldUploadsLimit
	FieldConnectionsLimit
	FieldStorageMode
	FieldUpBandwidthQueue
	FieldDownBandwidthQueue
	FieldAllTimeUpload
	FieldAllTimeDownload
	FieldActiveTime
	FieldFinishedTime
	FieldSeedingTime
	FieldSeedRank
	FieldLastScrape
	FieldHasIncoming
	FieldSparseRegions
	FieldSeedMode
	FieldUploadMode
	FieldShareMode
	FieldSuperSeeding
	FieldPriority
	FieldAddedTime
	FieldCompletedTime
	FieldLastSeenComplete
	FieldTimeSinceUpload
	FieldTimeSinceDownload
	FieldQueuePosition
	FieldNeedSaveResume
	FieldIPFilterApplies

	numTrackedFields
)

// NumTrackedFields returns the number of fields history stamps per entry.
func NumTrackedFields() int { return int(numTrackedFields) }

// Diff reports which TrackedFields differ between s and other, pointwise,
// matching the CMP_SET(x) comparisons in the original source.
func (s TorrentStatus) Diff(other TorrentStatus) []TrackedField {
	var changed []TrackedField
	add := func(f TrackedField, eq bool) {
		if !eq {
			changed = append(changed, f)
		}
	}
	add(FieldState, s.State == other.State)
	add(FieldPaused, s.Paused == other.Paused)
	add(FieldAutoManaged, s.AutoManaged == other.AutoManaged)
	add(FieldSequentialDownload, s.SequentialDownload == other.SequentialDownload)
	add(FieldIsSeeding, s.IsSeeding == other.IsSeeding)
	add(FieldIsFinished, s.IsFinished == other.IsFinished)
	add(FieldIsLoaded, s.IsLoaded == other.IsLoaded)
	add(FieldHasMetadata, s.HasMetadata == other.HasMetadata)
	add(FieldProgress, s.Progress == other.Progress)
	add(FieldProgressPPM, s.ProgressPPM == other.ProgressPPM)
	add(FieldError, s.Error == other.Error)
	add(FieldSavePath, s.SavePath == other.SavePath)
	add(FieldName, s.Name == other.Name)
	add(FieldNextAnnounce, s.NextAnnounce == other.NextAnnounce)
	add(FieldCurrentTracker, s.CurrentTracker == other.CurrentTracker)
	add(FieldTotalDownload, s.TotalDownload == other.TotalDownload)
	add(FieldTotalUpload, s.TotalUpload == other.TotalUpload)
	add(FieldTotalPayloadDownload, s.TotalPayloadDownload == other.TotalPayloadDownload)
	add(FieldTotalPayloadUpload, s.TotalPayloadUpload == other.TotalPayloadUpload)
	add(FieldTotalFailedBytes, s.TotalFailedBytes == other.TotalFailedBytes)
	add(FieldTotalRedundantBytes, s.TotalRedundantBytes == other.TotalRedundantBytes)
	add(FieldDownloadRate, s.DownloadRate == other.DownloadRate)
	add(FieldUploadRate, s.UploadRate == other.UploadRate)
	add(FieldDownloadPayloadRate, s.DownloadPayloadRate == other.DownloadPayloadRate)
	add(FieldUploadPayloadRate, s.UploadPayloadRate == other.UploadPayloadRate)
	add(FieldNumSeeds, s.NumSeeds == other.NumSeeds)
	add(FieldNumPeers, s.NumPeers == other.NumPeers)
	add(FieldNumComplete, s.NumComplete == other.NumComplete)
	add(FieldNumIncomplete, s.NumIncomplete == other.NumIncomplete)
	add(FieldListSeeds, s.ListSeeds == other.ListSeeds)
	add(FieldListPeers, s.ListPeers == other.ListPeers)
	add(FieldConnectCandidates, s.ConnectCandidates == other.ConnectCandidates)
	add(FieldNumPieces, s.NumPieces == other.NumPieces)
	add(FieldTotalDone, s.TotalDone == other.TotalDone)
	add(FieldTotalWantedDone, s.TotalWantedDone == other.TotalWantedDone)
	add(FieldTotalWanted, s.TotalWanted == other.TotalWanted)
	add(FieldDistributedFullCopies, s.DistributedFullCopies == other.DistributedFullCopies)
	add(FieldDistributedFraction, s.DistributedFraction == other.DistributedFraction)
	add(FieldDistributedCopies, s.DistributedCopies == other.DistributedCopies)
	add(FieldBlockSize, s.BlockSize == other.BlockSize)
	add(FieldNumUploads, s.NumUploads == other.NumUploads)
	add(FieldNumConnections, s.NumConnections == other.NumConnections)
	add(FieldUploadsLimit, s.UploadsLimit == other.UploadsLimit)
	add(FieldConnectionsLimit, s.ConnectionsLimit == other.ConnectionsLimit)
	add(FieldStorageMode, s.StorageMode == other.StorageMode)
	add(FieldUpBandwidthQueue, s.UpBandwidthQueue == other.UpBandwidthQueue)
	add(FieldDownBandwidthQueue, s.DownBandwidthQueue == other.DownBandwidthQueue)
	add(FieldAllTimeUpload, s.AllTimeUpload == other.AllTimeUpload)
	add(FieldAllTimeDownload, s.AllTimeDownload == other.AllTimeDownload)
	add(FieldActiveTime, s.ActiveTime == other.ActiveTime)
	add(FieldFinishedTime, s.FinishedTime == other.FinishedTime)
	add(FieldSeedingTime, s.SeedingTime == other.SeedingTime)
	add(FieldSeedRank, s.SeedRank == other.SeedRank)
	add(FieldLastScrape, s.LastScrape == other.LastScrape)
	add(FieldHasIncoming, s.HasIncoming == other.HasIncoming)
	add(FieldSparseRegions, s.SparseRegions == other.SparseRegions)
	add(FieldSeedMode, s.SeedMode == other.SeedMode)
	add(FieldUploadMode, s.UploadMode == other.UploadMode)
	add(FieldShareMode, s.ShareMode == other.ShareMode)
	add(FieldSuperSeeding, s.SuperSeeding == other.SuperSeeding)
	add(FieldPriority, s.Priority == other.Priority)
	add(FieldAddedTime, s.AddedTime == other.AddedTime)
	add(FieldCompletedTime, s.CompletedTime == other.CompletedTime)
	add(FieldLastSeenComplete, s.LastSeenComplete == other.LastSeenComplete)
	add(FieldTimeSinceUpload, s.TimeSinceUpload == other.TimeSinceUpload)
	add(FieldTimeSinceDownload, s.TimeSinceDownload == other.TimeSinceDownload)
	add(FieldQueuePosition, s.QueuePosition == other.QueuePosition)
	add(FieldNeedSaveResume, s.NeedSaveResume == other.NeedSaveResume)
	add(FieldIPFilterApplies, s.IPFilterApplies == other.IPFilterApplies)
	return changed
}
